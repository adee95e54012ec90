package queue

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/ugorji/go/codec"
)

// payload is the msgpack form of the note carried by an operation.
type payload struct {
	ID         string `codec:"id"`
	Owner      string `codec:"owner"`
	Title      string `codec:"title,omitempty"`
	Body       string `codec:"body,omitempty"`
	CreatedAt  int64  `codec:"created_at,omitempty"`
	ModifiedAt int64  `codec:"modified_at,omitempty"`
}

func encodePayload(n models.Note) ([]byte, error) {
	var (
		mh  codec.MsgpackHandle
		out []byte
	)
	p := payload{
		ID:         n.ID,
		Owner:      n.Owner,
		Title:      n.Title,
		Body:       n.Body,
		CreatedAt:  n.CreatedAt.UnixMicro(),
		ModifiedAt: n.ModifiedAt.UnixMicro(),
	}
	if err := codec.NewEncoderBytes(&out, &mh).Encode(&p); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return out, nil
}

func decodePayload(b []byte) (models.Note, error) {
	var (
		mh codec.MsgpackHandle
		p  payload
	)
	if err := codec.NewDecoderBytes(b, &mh).Decode(&p); err != nil {
		return models.Note{}, fmt.Errorf("failed to decode payload: %w", err)
	}
	return models.Note{
		ID:         p.ID,
		Owner:      p.Owner,
		Title:      p.Title,
		Body:       p.Body,
		CreatedAt:  time.UnixMicro(p.CreatedAt).UTC(),
		ModifiedAt: time.UnixMicro(p.ModifiedAt).UTC(),
	}, nil
}
