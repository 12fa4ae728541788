package editor

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/karolswdev/promptforge/internal/schema"
)

// coherenceBoost multiplies the weight of options sharing a tag with an
// option already picked in the same run.
const coherenceBoost = 3.0

// RandomOptions controls a randomize run.
type RandomOptions struct {
	// Keys restricts the run to these fields. Empty means every enabled select
	// field, or every select field when none is enabled.
	Keys []string
	// Coherent favours options whose tags match earlier picks.
	Coherent bool
	// Rand is the source of randomness. Nil uses a time-seeded source.
	Rand *rand.Rand
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomValues draws a weighted option for each requested select field. Keys
// are processed in the order given so coherent runs are reproducible.
func RandomValues(s *schema.Schema, keys []string, coherent bool, rng *rand.Rand) (map[string]any, error) {
	if s == nil {
		return nil, ErrNoSchema
	}
	if rng == nil {
		rng = NewRand(uint64(time.Now().UnixNano()))
	}
	picked := make(map[string]any, len(keys))
	var tags []string
	for _, key := range keys {
		f, ok := s.Field(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", schema.ErrUnknownField, key)
		}
		if f.Type != schema.TypeSelect || len(f.Options) == 0 {
			return nil, fmt.Errorf("%w: %q is not a select field", ErrNotRandomizable, key)
		}
		opt := weightedChoice(f.Options, tags, coherent, rng)
		picked[key] = opt.Value
		for _, t := range opt.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	return picked, nil
}

func weightedChoice(options []schema.Option, tags []string, coherent bool, rng *rand.Rand) schema.Option {
	weights := make([]float64, len(options))
	var total float64
	for i, o := range options {
		w := o.EffectiveWeight()
		if coherent && sharesTag(o.Tags, tags) {
			w *= coherenceBoost
		}
		weights[i] = w
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return options[i]
		}
		r -= w
	}
	return options[len(options)-1]
}

func sharesTag(a, b []string) bool {
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}

// RandomKeys resolves the default key set for a randomize run over doc.
func RandomKeys(s *schema.Schema, doc Document) []string {
	var enabled, all []string
	for _, f := range s.Fields {
		if f.Type != schema.TypeSelect {
			continue
		}
		all = append(all, f.Key)
		if doc.Enabled[f.Key] {
			enabled = append(enabled, f.Key)
		}
	}
	if len(enabled) > 0 {
		return enabled
	}
	return all
}

// Randomize picks values for the requested fields and applies them to the
// document as a single undoable step. It returns the picks.
func (e *Editor) Randomize(opts RandomOptions) (map[string]any, error) {
	if e.schema == nil {
		return nil, ErrNoSchema
	}
	keys := opts.Keys
	if len(keys) == 0 {
		keys = RandomKeys(e.schema, e.state.Document)
	}
	picked, err := RandomValues(e.schema, keys, opts.Coherent, opts.Rand)
	if err != nil {
		return nil, err
	}
	e.Apply(picked, StrategyMerge)
	return picked, nil
}
