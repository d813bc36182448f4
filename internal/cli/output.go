// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/shareset"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintShares prints encoded shares, one per line in text mode.
func (p *Printer) PrintShares(shares []*shamir.Share, threshold uint64, setID string) error {
	encoded := make([]string, len(shares))
	for i, s := range shares {
		encoded[i] = s.String()
	}
	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{
			"shares":    encoded,
			"threshold": threshold,
		}
		if setID != "" {
			out["set_id"] = setID
		}
		return p.printJSON(out)
	case OutputFormatText:
		for _, e := range encoded {
			fmt.Fprintln(p.writer, e)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSecret prints a rebuilt secret. Text mode writes raw bytes unless
// asBase64 is set.
func (p *Printer) PrintSecret(secret []byte, asBase64 bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"secret": base64.StdEncoding.EncodeToString(secret),
		})
	case OutputFormatText:
		if asBase64 {
			_, err := fmt.Fprintln(p.writer, base64.StdEncoding.EncodeToString(secret))
			return err
		}
		_, err := p.writer.Write(secret)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShareInfo prints share metadata. Values are never shown.
func (p *Printer) PrintShareInfo(shares []*shamir.Share) error {
	switch p.format {
	case OutputFormatJSON:
		list := make([]map[string]interface{}, len(shares))
		for i, s := range shares {
			list[i] = map[string]interface{}{
				"input":       s.Input,
				"prime_bits":  s.Prime.BitLen(),
				"secret_len":  s.SecretLen,
				"fingerprint": fingerprint(s),
			}
		}
		return p.printJSON(map[string]interface{}{"shares": list})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%-8s %-12s %-12s %s\n", "INPUT", "PRIME BITS", "SECRET LEN", "PRIME")
		fmt.Fprintln(p.writer, strings.Repeat("-", 52))
		for _, s := range shares {
			fmt.Fprintf(p.writer, "%-8d %-12d %-12d %s\n", s.Input, s.Prime.BitLen(), s.SecretLen, fingerprint(s))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSets prints a list of share set manifests
func (p *Printer) PrintSets(sets []*shareset.Manifest) error {
	switch p.format {
	case OutputFormatJSON:
		if sets == nil {
			sets = []*shareset.Manifest{}
		}
		return p.printJSON(map[string]interface{}{"sets": sets})
	case OutputFormatText:
		if len(sets) == 0 {
			fmt.Fprintln(p.writer, "No share sets found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-36s  %-16s %-9s %-20s\n", "ID", "NAME", "K/N", "CREATED")
		for _, m := range sets {
			fmt.Fprintf(p.writer, "%-36s  %-16s %-9s %-20s\n",
				m.ID, m.Name, fmt.Sprintf("%d/%d", m.Threshold, m.Total), m.CreatedAt.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintManifest prints one share set and the inputs still stored.
func (p *Printer) PrintManifest(m *shareset.Manifest, present []*shamir.Share) error {
	inputs := make([]uint64, len(present))
	for i, s := range present {
		inputs[i] = s.Input
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"manifest":       m,
			"present_inputs": inputs,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Share Set:\n")
		fmt.Fprintf(p.writer, "  ID:         %s\n", m.ID)
		if m.Name != "" {
			fmt.Fprintf(p.writer, "  Name:       %s\n", m.Name)
		}
		fmt.Fprintf(p.writer, "  Threshold:  %d of %d\n", m.Threshold, m.Total)
		fmt.Fprintf(p.writer, "  Prime Bits: %d\n", m.PrimeBits)
		fmt.Fprintf(p.writer, "  Secret Len: %d\n", m.SecretLen)
		fmt.Fprintf(p.writer, "  Created:    %s\n", m.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(p.writer, "  Present:    %v\n", inputs)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
		if t := shamir.ErrorType(err); t != "internal" {
			out["type"] = t
		}
		return p.printJSON(out)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// fingerprint abbreviates the prime so shares from one split can be
// matched by eye.
func fingerprint(s *shamir.Share) string {
	hex := s.Prime.Text(16)
	if len(hex) <= 16 {
		return hex
	}
	return hex[:8] + ".." + hex[len(hex)-8:]
}
