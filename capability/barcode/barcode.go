// Package barcode is the mobile barcode-scanner capability module.
//
// It follows the stub pattern: Scan packs its arguments into a record and
// invokes "plugin:barcode-scanner|scan" on the host. A Scanner can only be
// built on a platform carrying the mobile gate.
package barcode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/ipcmesh/capability"
	"github.com/hupe1980/ipcmesh/core"
)

// Command is the wire identifier of the scan operation.
const Command = "plugin:barcode-scanner|scan"

// Format is a symbology the scanner looks for.
type Format string

const (
	QRCode     Format = "QR_CODE"
	UPCA       Format = "UPC_A"
	UPCE       Format = "UPC_E"
	EAN8       Format = "EAN_8"
	EAN13      Format = "EAN_13"
	Code39     Format = "CODE_39"
	Code93     Format = "CODE_93"
	Code128    Format = "CODE_128"
	Codabar    Format = "CODABAR"
	ITF        Format = "ITF"
	Aztec      Format = "AZTEC"
	DataMatrix Format = "DATA_MATRIX"
	PDF417     Format = "PDF_417"
)

// Some hosts report formats by their variant name instead.
var formatAliases = map[string]Format{
	"QRCode":     QRCode,
	"EAN8":       EAN8,
	"EAN13":      EAN13,
	"Code39":     Code39,
	"Code93":     Code93,
	"Code128":    Code128,
	"Codabar":    Codabar,
	"Aztec":      Aztec,
	"DataMatrix": DataMatrix,
	"PDF417":     PDF417,
}

// UnmarshalJSON accepts both spellings of a format.
func (f *Format) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if alias, ok := formatAliases[s]; ok {
		*f = alias
		return nil
	}
	*f = Format(s)
	return nil
}

// CameraDirection selects the camera.
type CameraDirection string

const (
	Back  CameraDirection = "back"
	Front CameraDirection = "front"
)

// Options is the argument record of the scan operation.
type Options struct {
	CameraDirection CameraDirection `json:"cameraDirection"`
	Formats         []Format        `json:"formats"`
	Windowed        bool            `json:"windowed"`
}

// Scanned is a decoded barcode. Bounds is passed through undecoded because
// hosts disagree on its shape.
type Scanned struct {
	Content string          `json:"content"`
	Format  Format          `json:"format"`
	Bounds  json.RawMessage `json:"bounds,omitempty"`
}

// Scanner invokes the host barcode-scanner plugin.
type Scanner struct {
	c core.Caller
}

// NewScanner returns a Scanner, or capability.ErrRestricted when p lacks the
// mobile gate.
func NewScanner(c core.Caller, p capability.Platform) (*Scanner, error) {
	if err := p.Require(capability.Mobile); err != nil {
		return nil, fmt.Errorf("barcode: %w", err)
	}
	return &Scanner{c: c}, nil
}

// Scan looks for one barcode of the given format.
func (s *Scanner) Scan(ctx context.Context, format Format, windowed bool, direction CameraDirection) (Scanned, error) {
	return s.ScanWith(ctx, Options{
		CameraDirection: direction,
		Formats:         []Format{format},
		Windowed:        windowed,
	})
}

// ScanWith invokes the scan operation with a full option record. An empty
// direction defaults to the back camera.
func (s *Scanner) ScanWith(ctx context.Context, opts Options) (Scanned, error) {
	if opts.CameraDirection == "" {
		opts.CameraDirection = Back
	}
	if opts.Formats == nil {
		opts.Formats = []Format{}
	}
	return core.Invoke[Scanned](ctx, s.c, Command, opts)
}
