// Package seed generates synthetic exams for load and pagination tests.
// Output is fully determined by the seed and the reference time.
package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rs/zerolog"
)

type valueRange struct{ min, span float64 }

var examTypes = map[string]valueRange{
	"Glucose":       {70, 90},
	"Cholesterol":   {120, 100},
	"Blood count":   {4, 3},
	"Creatinine":    {0.5, 1.5},
	"Triglycerides": {50, 200},
}

// examTypeNames fixes the draw order; map iteration would break determinism.
var examTypeNames = []string{"Glucose", "Cholesterol", "Blood count", "Creatinine", "Triglycerides"}

var laboratories = []string{
	"Lab Dasa", "Lab Fleury", "Lab Sao Lucas", "Lab Anhembi", "Lab Paulista",
}

var patientNames = []string{
	"Joao Silva", "Maria Oliveira", "Carlos Souza", "Ana Paula", "Fernanda Lima",
	"Paulo Mendes", "Juliana Rocha", "Eduardo Alves", "Camila Costa", "Felipe Martins",
}

const collectionWindowMonths = 6

// ValueRange returns the closed interval results of examType are drawn from.
func ValueRange(examType string) (lo, hi float64, ok bool) {
	r, ok := examTypes[examType]
	return r.min, r.min + r.span, ok
}

type Options struct {
	Patients int   `validate:"min=1"`
	Seed     int64
	// Reference is the upper end of the collection window. Zero means now.
	Reference time.Time
}

// Generator draws exams one at a time. It is not safe for concurrent use.
type Generator struct {
	rng      *rand.Rand
	patients []string
	from     time.Time
	window   int64
}

func New(opts Options) (*Generator, error) {
	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid seed options: %w", err)
	}
	ref := opts.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	ref = ref.UTC().Truncate(time.Second)
	from := ref.AddDate(0, -collectionWindowMonths, 0)

	rng := rand.New(rand.NewSource(opts.Seed))
	patients := make([]string, opts.Patients)
	for i := range patients {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("patient id: %w", err)
		}
		patients[i] = id.String()[:8]
	}
	return &Generator{
		rng:      rng,
		patients: patients,
		from:     from,
		window:   int64(ref.Sub(from) / time.Second),
	}, nil
}

// Next draws one exam. Only completed exams carry a result value; pending
// ones have no result time. created_at is the time the result was (or would
// be) released.
func (g *Generator) Next() model.ExamRecord {
	examType := examTypeNames[g.rng.Intn(len(examTypeNames))]
	status := model.ExamStatuses[g.rng.Intn(len(model.ExamStatuses))]
	collected := g.from.Add(time.Duration(g.rng.Int63n(g.window)) * time.Second)
	released := collected.AddDate(0, 0, 1+g.rng.Intn(3))
	r := examTypes[examType]
	value := math.Round((r.min+g.rng.Float64()*r.span)*100) / 100

	rec := model.ExamRecord{
		PatientID:   g.patients[g.rng.Intn(len(g.patients))],
		PatientName: patientNames[g.rng.Intn(len(patientNames))],
		ExamType:    examType,
		Status:      status,
		CollectedAt: collected,
		Laboratory:  laboratories[g.rng.Intn(len(laboratories))],
		CreatedAt:   released,
	}
	switch status {
	case model.ExamStatusCompleted:
		rec.ResultValue, rec.ResultAt = &value, &released
	case model.ExamStatusCancelled:
		rec.ResultAt = &released
	}
	return rec
}

// Batch draws n exams.
func (g *Generator) Batch(n int) []model.ExamRecord {
	out := make([]model.ExamRecord, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

const progressEvery = 50_000

// Load draws count exams and writes them in batches of batchSize.
func Load(ctx context.Context, w repository.ExamWriter, g *Generator, count, batchSize int, logger zerolog.Logger) (int, error) {
	if batchSize < 1 {
		batchSize = 1000
	}
	log := logger.With().Str("module", "seed").Logger()
	written, lastReport := 0, 0
	for written < count {
		n, err := w.InsertExams(ctx, g.Batch(min(batchSize, count-written)))
		written += n
		if err != nil {
			return written, fmt.Errorf("insert after %d exams: %w", written, err)
		}
		if written-lastReport >= progressEvery {
			log.Info().Int("written", written).Int("total", count).Msg("seeding exams")
			lastReport = written
		}
	}
	log.Info().Int("written", written).Msg("seed complete")
	return written, nil
}

// CSVHeader matches the column order WriteCSV emits.
var CSVHeader = []string{
	"patient_id", "patient_name", "exam_type", "status", "result_value",
	"collected_at", "result_at", "laboratory", "created_at",
}

// WriteCSV draws count exams into w. Absent values are empty cells.
func WriteCSV(w io.Writer, g *Generator, count int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		r := g.Next()
		value, resultAt := "", ""
		if r.ResultValue != nil {
			value = strconv.FormatFloat(*r.ResultValue, 'f', 2, 64)
		}
		if r.ResultAt != nil {
			resultAt = r.ResultAt.Format(time.RFC3339)
		}
		row := []string{
			r.PatientID, r.PatientName, r.ExamType, string(r.Status), value,
			r.CollectedAt.Format(time.RFC3339), resultAt, r.Laboratory, r.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
