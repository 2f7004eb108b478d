package ticket

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
)

const recordCount = 5

var recordNames = [recordCount]string{"app id", "depot id", "manifest id", "depot key", "manifest payload"}

// Encode writes t to w in the five-record line format.
func Encode(w io.Writer, t *Ticket) error {
	if err := t.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%s\n", t.AppID, t.DepotID, t.ManifestID, hex.EncodeToString(t.DepotKey))

	enc := base64.NewEncoder(base64.StdEncoding, bw)
	if _, err := enc.Write(t.Manifest); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// Marshal is Encode into a byte slice.
func Marshal(t *Ticket) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads one ticket from r. Format violations are reported as
// common.ErrMalformedTicket; read failures are returned as they are.
func Decode(r io.Reader) (*Ticket, error) {
	br := bufio.NewReader(r)

	var rec [recordCount]string
	for i := range rec {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if errors.Is(err, io.EOF) && line == "" {
			return nil, fmt.Errorf("%w: missing %s", common.ErrMalformedTicket, recordNames[i])
		}
		rec[i] = strings.TrimRight(line, "\r\n")
	}

	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, fmt.Errorf("%w: unexpected data after %s", common.ErrMalformedTicket, recordNames[recordCount-1])
	}

	t := &Ticket{}
	if t.AppID, err = parseUint32(rec[0], recordNames[0]); err != nil {
		return nil, err
	}
	if t.DepotID, err = parseUint32(rec[1], recordNames[1]); err != nil {
		return nil, err
	}
	if t.ManifestID, err = strconv.ParseUint(strings.TrimSpace(rec[2]), 10, 64); err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a decimal number", common.ErrMalformedTicket, recordNames[2], rec[2])
	}
	if t.DepotKey, err = hex.DecodeString(strings.TrimSpace(rec[3])); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid hex: %v", common.ErrMalformedTicket, recordNames[3], err)
	}
	if t.Manifest, err = base64.StdEncoding.DecodeString(strings.TrimSpace(rec[4])); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64: %v", common.ErrMalformedTicket, recordNames[4], err)
	}
	if len(t.Manifest) == 0 {
		t.Manifest = nil
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) (*Ticket, error) {
	return Decode(bytes.NewReader(data))
}

func parseUint32(s, name string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a decimal number", common.ErrMalformedTicket, name, s)
	}
	return uint32(v), nil
}
