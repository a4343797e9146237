package inventory

import (
	"errors"
	"fmt"

	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/source"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds everything Run needs.
type Config struct {
	Source   source.Source
	Registry *Registry // nil = counts and API versions only
	Log      Logger    // optional; nil = no logging

	// OnTypeDone is called after each type is scanned. Nil = no callback.
	OnTypeDone func(metadataType string, members int)
}

// Run builds the inventory of one package. Only a failure to read the
// manifest is fatal; a scanner error aborts that type alone and is recorded
// as a diagnostic.
func Run(cfg Config) (*Inventory, error) {
	if cfg.Source == nil {
		return nil, errors.New("inventory: no source")
	}
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	inv := New(cfg.Log)
	man, err := cfg.Source.Manifest()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	for _, t := range man.Order {
		members := concrete(man.Members(t))
		if err := inv.setCount(t, len(members)); err != nil {
			inv.Diagnose(ConversionError, t, "", err)
			continue
		}

		inv.log.Debugf("Scanning %d %s members", len(members), t)
		if err := reg.Lookup(t).Scan(inv, cfg.Source, t, members); err != nil {
			kind := ScannerError
			var conv *pathstore.TypeConversionError
			if errors.As(err, &conv) {
				kind = ConversionError
			}
			inv.Diagnose(kind, t, "", fmt.Errorf("%s scanner aborted: %w", t, err))
		}

		if cfg.OnTypeDone != nil {
			cfg.OnTypeDone(t, len(members))
		}
	}
	return inv, nil
}

// concrete drops wildcard markers a source could not expand.
func concrete(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != source.WildcardMember && m != "" {
			out = append(out, m)
		}
	}
	return out
}
