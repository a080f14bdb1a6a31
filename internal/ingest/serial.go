// Package ingest reads raw observation batches off a receiver's
// serial link and decodes them into epochs for the positioning core,
// the way the receiver's stream layer feeds raw bytes to the message
// decoder rather than the core consuming a port directly.
package ingest

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	serial "github.com/tarm/goserial"

	"github.com/fxb-gnss/spp/internal/gnss"
)

// SerialReader wraps a raw receiver serial port, buffering bytes until
// a full epoch's worth of observations has been decoded.
type SerialReader struct {
	port   io.ReadCloser
	reader *bufio.Reader
	decode func(*bufio.Reader) ([]gnss.Obs, error)
}

// OpenSerial opens the named port at baud and binds decode as the
// epoch framing/decoding function for the receiver's raw message
// format (e.g. RTCM, UBX); decode is supplied by the caller because
// the wire format is receiver-specific and outside the positioning
// core's concern.
func OpenSerial(name string, baud int, decode func(*bufio.Reader) ([]gnss.Obs, error)) (*SerialReader, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial port %s at %d baud", name, baud)
	}
	return &SerialReader{port: port, reader: bufio.NewReader(port), decode: decode}, nil
}

// NextEpoch blocks until one complete epoch of observations has been
// decoded from the port, or returns an error if the port closes or
// the stream desynchronizes.
func (r *SerialReader) NextEpoch() ([]gnss.Obs, error) {
	obs, err := r.decode(r.reader)
	if err != nil {
		return nil, errors.Wrap(err, "decoding epoch from serial stream")
	}
	return obs, nil
}

// Close releases the underlying serial port.
func (r *SerialReader) Close() error {
	return r.port.Close()
}
