package notesrpc

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Record is the wire form of a note.
type Record struct {
	ID         string
	Owner      string
	Title      string
	Body       string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

var ErrMalformed = errors.New("malformed record")

const (
	fieldID         = "id"
	fieldOwner      = "owner"
	fieldTitle      = "title"
	fieldBody       = "body"
	fieldCreatedAt  = "created_at"
	fieldModifiedAt = "modified_at"
)

// EncodeRecord converts r to a struct message. Zero timestamps are omitted.
func EncodeRecord(r Record) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldID:    structpb.NewStringValue(r.ID),
		fieldOwner: structpb.NewStringValue(r.Owner),
		fieldTitle: structpb.NewStringValue(r.Title),
		fieldBody:  structpb.NewStringValue(r.Body),
	}
	if !r.CreatedAt.IsZero() {
		fields[fieldCreatedAt] = structpb.NewStringValue(r.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	if !r.ModifiedAt.IsZero() {
		fields[fieldModifiedAt] = structpb.NewStringValue(r.ModifiedAt.UTC().Format(time.RFC3339Nano))
	}
	return &structpb.Struct{Fields: fields}
}

// DecodeRecord is the inverse of EncodeRecord. Missing fields decode to
// their zero values; fields of the wrong kind are an error.
func DecodeRecord(s *structpb.Struct) (Record, error) {
	var (
		r   Record
		err error
	)
	if s == nil {
		return r, ErrMalformed
	}
	if r.ID, err = stringField(s, fieldID); err != nil {
		return r, err
	}
	if r.Owner, err = stringField(s, fieldOwner); err != nil {
		return r, err
	}
	if r.Title, err = stringField(s, fieldTitle); err != nil {
		return r, err
	}
	if r.Body, err = stringField(s, fieldBody); err != nil {
		return r, err
	}
	if r.CreatedAt, err = timeField(s, fieldCreatedAt); err != nil {
		return r, err
	}
	if r.ModifiedAt, err = timeField(s, fieldModifiedAt); err != nil {
		return r, err
	}
	return r, nil
}

// EncodeRecords packs a listing.
func EncodeRecords(rs []Record) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(rs))
	for _, r := range rs {
		values = append(values, structpb.NewStructValue(EncodeRecord(r)))
	}
	return &structpb.ListValue{Values: values}
}

// DecodeRecords unpacks a listing produced by EncodeRecords.
func DecodeRecords(l *structpb.ListValue) ([]Record, error) {
	out := make([]Record, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: item %d is not a struct", ErrMalformed, i)
		}
		r, err := DecodeRecord(s)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformed, name)
	}
	return sv.StringValue, nil
}

func timeField(s *structpb.Struct, name string) (time.Time, error) {
	raw, err := stringField(s, name)
	if err != nil || raw == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return t.UTC(), nil
}
