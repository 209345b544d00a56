package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/bootstrap"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/seed"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic exams into the configured store or a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			patients, _ := cmd.Flags().GetInt("patients")
			seedValue, _ := cmd.Flags().GetInt64("seed")
			batch, _ := cmd.Flags().GetInt("batch")
			csvPath, _ := cmd.Flags().GetString("csv")

			if count < 1 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			gen, err := seed.New(seed.Options{Patients: patients, Seed: seedValue})
			if err != nil {
				return err
			}

			if csvPath != "" {
				return writeCSVFile(csvPath, gen, count)
			}

			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			store, err := bootstrap.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			written, err := seed.Load(cmd.Context(), store.Writer, gen, count, batch, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d exams into %s.\n", written, store.Driver)
			return nil
		},
	}
	cmd.Flags().Int("count", 100_000, "Number of exams to generate")
	cmd.Flags().Int("patients", 1_000, "Size of the patient pool")
	cmd.Flags().Int64("seed", 1, "Random seed; equal seeds generate equal data")
	cmd.Flags().Int("batch", 10_000, "Exams per insert batch")
	cmd.Flags().String("csv", "", "Write to this CSV file instead of the store")
	return cmd
}

func writeCSVFile(path string, gen *seed.Generator, count int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := seed.WriteCSV(w, gen, count); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Flush()
}
