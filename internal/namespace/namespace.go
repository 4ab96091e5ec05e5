package namespace

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/pkg/id"
)

// Meta records the identity a namespace was first opened with. IDs from one
// namespace are only decodable with the layout stored here.
type Meta struct {
	Name         string `json:"name"`
	CreatedAtMs  int64  `json:"createdAtMs"`
	EpochMillis  int64  `json:"epochMillis"`
	ShardID      uint64 `json:"shardId"`
	ShardBits    uint8  `json:"shardBits"`
	SequenceBits uint8  `json:"sequenceBits"`
}

// Layout returns the stored bit split.
func (m Meta) Layout() id.Layout {
	return id.Layout{ShardBits: m.ShardBits, SequenceBits: m.SequenceBits}
}

// SequenceName returns the namespace used for a table column:
// "{table}_{column}_seq", lowercased. Quoted identifiers such as "user" are
// unquoted first.
func SequenceName(table, column string) (string, error) {
	t := unquote(table)
	c := unquote(column)
	if t == "" || c == "" {
		return "", &id.ConfigError{Field: "namespace", Value: table + "." + column, Reason: "table and column are required"}
	}
	return strings.ToLower(t + "_" + c + "_seq"), nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// Validator checks namespace names against an anchored pattern and an
// optional allow-list.
type Validator struct {
	re      *regexp.Regexp
	allowed map[string]struct{}
}

// NewValidator compiles pattern (anchored at both ends). An empty allowed
// list accepts every name matching the pattern.
func NewValidator(pattern string, allowed []string) (*Validator, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, &id.ConfigError{Field: "namespaceNameRegex", Value: pattern, Reason: err.Error()}
	}
	v := &Validator{re: re}
	if len(allowed) > 0 {
		v.allowed = make(map[string]struct{}, len(allowed))
		for _, a := range allowed {
			v.allowed[a] = struct{}{}
		}
	}
	return v, nil
}

// Validate returns a *id.ConfigError when name is not acceptable.
func (v *Validator) Validate(name string) error {
	if name == "" {
		return &id.ConfigError{Field: "namespace", Value: name, Reason: "must not be empty"}
	}
	// '/' separates key segments in storage
	if strings.Contains(name, "/") || !v.re.MatchString(name) {
		return &id.ConfigError{Field: "namespace", Value: name, Reason: fmt.Sprintf("must match %s", v.re.String())}
	}
	if v.allowed != nil {
		if _, ok := v.allowed[name]; !ok {
			return &id.ConfigError{Field: "namespace", Value: name, Reason: "not in allowed namespaces"}
		}
	}
	return nil
}

var (
	nsPrefix   = []byte("ns/")
	metaSuffix = "/meta"
	wmSuffix   = "/wm"
)

func key(ns, suffix string) []byte {
	k := make([]byte, 0, len(nsPrefix)+len(ns)+len(suffix))
	k = append(k, nsPrefix...)
	k = append(k, ns...)
	k = append(k, suffix...)
	return k
}

// MetaKey is the storage key of a namespace's Meta record.
func MetaKey(ns string) []byte { return key(ns, metaSuffix) }

// WatermarkKey is the storage key of a namespace's reserved millisecond.
func WatermarkKey(ns string) []byte { return key(ns, wmSuffix) }

// Get loads a namespace's Meta. ok is false when none is stored.
func Get(db *pebblestore.DB, name string) (m Meta, ok bool, err error) {
	b, err := db.Get(MetaKey(name))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, false, fmt.Errorf("namespace %s: decode meta: %w", name, err)
	}
	return m, true, nil
}

// Ensure creates the Meta record for want.Name if absent and returns the
// effective record. An existing record whose epoch, shard or layout differs
// from want is refused with a *id.ConfigError.
func Ensure(db *pebblestore.DB, want Meta) (Meta, error) {
	have, ok, err := Get(db, want.Name)
	if err != nil {
		return Meta{}, err
	}
	if ok {
		if err := compatible(have, want); err != nil {
			return Meta{}, err
		}
		return have, nil
	}
	if want.CreatedAtMs == 0 {
		want.CreatedAtMs = time.Now().UnixMilli()
	}
	b, err := json.Marshal(want)
	if err != nil {
		return Meta{}, err
	}
	if err := db.SetSync(MetaKey(want.Name), b); err != nil {
		return Meta{}, err
	}
	return want, nil
}

func compatible(have, want Meta) error {
	switch {
	case have.Layout() != want.Layout():
		return &id.ConfigError{Field: "layout", Value: fmt.Sprintf("%d/%d", want.ShardBits, want.SequenceBits),
			Reason: fmt.Sprintf("namespace %s was created with %d/%d", have.Name, have.ShardBits, have.SequenceBits)}
	case have.ShardID != want.ShardID:
		return &id.ConfigError{Field: "shardId", Value: fmt.Sprint(want.ShardID),
			Reason: fmt.Sprintf("namespace %s was created with shard %d", have.Name, have.ShardID)}
	case have.EpochMillis != want.EpochMillis:
		return &id.ConfigError{Field: "epochMillis", Value: fmt.Sprint(want.EpochMillis),
			Reason: fmt.Sprintf("namespace %s was created with epoch %d", have.Name, have.EpochMillis)}
	}
	return nil
}

// List returns every stored namespace in name order.
func List(db *pebblestore.DB) ([]Meta, error) {
	var out []Meta
	err := db.ScanPrefix(nsPrefix, func(k, v []byte) error {
		if !strings.HasSuffix(string(k), metaSuffix) {
			return nil
		}
		var m Meta
		if err := json.Unmarshal(v, &m); err != nil {
			return fmt.Errorf("namespace: decode %s: %w", k, err)
		}
		out = append(out, m)
		return nil
	})
	return out, err
}
