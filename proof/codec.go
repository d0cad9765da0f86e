package proof

import (
	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/ozkserr"
)

func decodeLabel(data []byte) (label.PartialLabel, error) {
	l, err := label.Load(data)
	if err != nil {
		return label.PartialLabel{}, xerrors.Errorf("ozks: proof: %w: %v", ozkserr.ErrInvalidEncoding, err)
	}
	return l, nil
}
