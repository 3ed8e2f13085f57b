package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"devicecore-go/errcode"
	"devicecore-go/types"
)

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

// RegisterBuilder is called from device package init functions.
func RegisterBuilder(typ string, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[typ]; exists {
		panic(fmt.Sprintf("duplicate device builder: %s", typ))
	}
	builders[typ] = b
}

func lookupBuilder(typ string) (Builder, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	b, ok := builders[typ]
	return b, ok
}

// BuilderTypes lists registered device types, sorted.
func BuilderTypes() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build runs the builder registered for typ.
func Build(ctx context.Context, typ, name string, params any, res Resources) ([]Entry, error) {
	b, ok := lookupBuilder(typ)
	if !ok {
		return nil, errcode.New(errcode.UnknownType, "build",
			fmt.Sprintf("%s (known: %s)", typ, strings.Join(BuilderTypes(), ", ")))
	}
	return b.Build(ctx, BuilderInput{Name: name, Type: typ, Params: params, Res: res})
}

// BuildTable builds the device table in configuration order.
func BuildTable(ctx context.Context, cfgs []types.DeviceConfig, res Resources) (*Table, error) {
	var entries []Entry
	for i := range cfgs {
		c := &cfgs[i]
		es, err := Build(ctx, c.Type, c.Name, &c.Params, res)
		if err != nil {
			return nil, fmt.Errorf("device %d (%s %q): %w", i, c.Type, c.Name, err)
		}
		entries = append(entries, es...)
	}
	return NewTable(entries...), nil
}

// DecodeParams decodes builder params. Builders may be handed their typed
// params directly (tests, board code) or the raw YAML node from a board
// file; an absent node leaves dst untouched.
func DecodeParams[T any](src any, dst *T) error {
	switch v := src.(type) {
	case nil:
		return nil
	case T:
		*dst = v
		return nil
	case *T:
		if v != nil {
			*dst = *v
		}
		return nil
	case *yaml.Node:
		if v == nil || v.Kind == 0 {
			return nil
		}
		if err := v.Decode(dst); err != nil {
			return errcode.Wrap(errcode.InvalidParams, "params", err)
		}
		return nil
	case yaml.Node:
		return DecodeParams(&v, dst)
	default:
		return errcode.New(errcode.InvalidParams, "params", fmt.Sprintf("unexpected %T", src))
	}
}
