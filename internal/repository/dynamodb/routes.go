package dynamodb

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

var errUnsupportedIndex = errors.New("index shape has no dynamodb layout")

var hashAttrs = map[repository.Field]string{
	repository.FieldStatus:    attrStatus,
	repository.FieldPatientID: attrPatientID,
}

var rangeAttrs = map[repository.Field]string{
	repository.FieldCreatedAt:   attrCreatedKey,
	repository.FieldResultAt:    attrResultKey,
	repository.FieldCollectedAt: attrCollectedKey,
}

// route is the GSI layout of one plan index. The hash key is the equality
// field, or the constant bucket when the index has none. The range key is
// either the numeric id or a composite "<time>#<id>" string.
type route struct {
	index     string
	hashField repository.Field
	hashAttr  string
	rangeAttr string
	numeric   bool
	sort      []repository.Field
}

func routeFor(idx indexplan.Index) (route, error) {
	fields := make([]repository.Field, len(idx.Keys))
	for i, k := range idx.Keys {
		fields[i] = k.Field
	}
	rt := route{index: idx.Name, hashAttr: attrBucket}
	if len(fields) > 0 {
		if attr, ok := hashAttrs[fields[0]]; ok {
			rt.hashField, rt.hashAttr = fields[0], attr
			fields = fields[1:]
		}
	}
	switch {
	case len(fields) == 1 && fields[0] == repository.FieldID:
		rt.rangeAttr, rt.numeric = attrID, true
	case len(fields) == 2 && fields[1] == repository.FieldID && rangeAttrs[fields[0]] != "":
		rt.rangeAttr = rangeAttrs[fields[0]]
	default:
		return route{}, fmt.Errorf("%w: %s", errUnsupportedIndex, idx)
	}
	rt.sort = fields
	return rt, nil
}

func routesFor(plan indexplan.Plan) ([]route, error) {
	out := make([]route, 0, len(plan.Indexes))
	for _, idx := range plan.Indexes {
		rt, err := routeFor(idx)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

func (rt route) serves(q repository.Query) bool {
	if !slices.Equal(rt.sort, q.Sort) {
		return false
	}
	if rt.hashField == "" {
		return len(q.Filters) == 0
	}
	return len(q.Filters) == 1 && q.Filters[0].Field == rt.hashField
}

func (rt route) hashValue(q repository.Query) any {
	if rt.hashField == "" {
		return bucketValue
	}
	return q.Filters[0].Value
}

func (rt route) attributeDefinitions() []types.AttributeDefinition {
	rangeType := types.ScalarAttributeTypeS
	if rt.numeric {
		rangeType = types.ScalarAttributeTypeN
	}
	return []types.AttributeDefinition{
		{AttributeName: aws.String(rt.hashAttr), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(rt.rangeAttr), AttributeType: rangeType},
	}
}

func (rt route) keySchema() []types.KeySchemaElement {
	return []types.KeySchemaElement{
		{AttributeName: aws.String(rt.hashAttr), KeyType: types.KeyTypeHash},
		{AttributeName: aws.String(rt.rangeAttr), KeyType: types.KeyTypeRange},
	}
}

// keyCondition narrows the index range to the query bounds. Exclusive
// composite bounds are kept inclusive here; Fetch applies the exact bounds to
// every item it reads. ok is false when the range is
// provably empty.
func (rt route) keyCondition(q repository.Query) (cond expression.KeyConditionBuilder, ok bool, err error) {
	cond = expression.Key(rt.hashAttr).Equal(expression.Value(rt.hashValue(q)))
	if rt.numeric {
		return rt.numericRange(cond, q)
	}

	var lo, hi *string
	if q.Lower != nil {
		k, err := lowerKey(q.Lower)
		if err != nil {
			return cond, false, err
		}
		lo = &k
	}
	if q.Upper != nil {
		k, err := upperKey(q.Upper)
		if err != nil {
			return cond, false, err
		}
		hi = &k
	}
	key := expression.Key(rt.rangeAttr)
	switch {
	case lo != nil && hi != nil:
		if strings.Compare(*lo, *hi) > 0 {
			return cond, false, nil
		}
		return cond.And(key.Between(expression.Value(*lo), expression.Value(*hi))), true, nil
	case lo != nil:
		return cond.And(key.GreaterThanEqual(expression.Value(*lo))), true, nil
	case hi != nil:
		return cond.And(key.LessThanEqual(expression.Value(*hi))), true, nil
	}
	return cond, true, nil
}

func (rt route) numericRange(cond expression.KeyConditionBuilder, q repository.Query) (expression.KeyConditionBuilder, bool, error) {
	var lo, hi *int64
	if q.Lower != nil {
		v, ok := q.Lower.Values[0].(int64)
		if !ok {
			return cond, false, fmt.Errorf("%w: id bound of type %T", repository.ErrInvalidQuery, q.Lower.Values[0])
		}
		if !q.Lower.Inclusive {
			v++
		}
		lo = &v
	}
	if q.Upper != nil {
		v, ok := q.Upper.Values[0].(int64)
		if !ok {
			return cond, false, fmt.Errorf("%w: id bound of type %T", repository.ErrInvalidQuery, q.Upper.Values[0])
		}
		if !q.Upper.Inclusive {
			v--
		}
		hi = &v
	}
	key := expression.Key(attrID)
	switch {
	case lo != nil && hi != nil:
		if *lo > *hi {
			return cond, false, nil
		}
		return cond.And(key.Between(expression.Value(*lo), expression.Value(*hi))), true, nil
	case lo != nil:
		return cond.And(key.GreaterThanEqual(expression.Value(*lo))), true, nil
	case hi != nil:
		return cond.And(key.LessThanEqual(expression.Value(*hi))), true, nil
	}
	return cond, true, nil
}

// Every composite key of time t starts with timeKey(t)+"#". "$" sorts right
// after "#", so timeKey(t)+"$" is above all of them and below any later time.
func lowerKey(b *repository.Bound) (string, error) {
	t, id, hasID, err := boundParts(b)
	if err != nil {
		return "", err
	}
	switch {
	case hasID:
		return compositeKey(t, id), nil
	case b.Inclusive:
		return timeKey(t), nil
	default:
		return timeKey(t) + "$", nil
	}
}

func upperKey(b *repository.Bound) (string, error) {
	t, id, hasID, err := boundParts(b)
	if err != nil {
		return "", err
	}
	switch {
	case hasID:
		return compositeKey(t, id), nil
	case b.Inclusive:
		return timeKey(t) + "$", nil
	default:
		return timeKey(t), nil
	}
}

func boundParts(b *repository.Bound) (t time.Time, id int64, hasID bool, err error) {
	t, ok := b.Values[0].(time.Time)
	if !ok {
		return t, 0, false, fmt.Errorf("%w: time bound of type %T", repository.ErrInvalidQuery, b.Values[0])
	}
	if len(b.Values) < 2 {
		return t, 0, false, nil
	}
	id, ok = b.Values[1].(int64)
	if !ok {
		return t, 0, false, fmt.Errorf("%w: id bound of type %T", repository.ErrInvalidQuery, b.Values[1])
	}
	return t, id, true, nil
}
