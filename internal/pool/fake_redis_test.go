package pool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeRedis is an in-memory stand-in for redisClient.ClientInterface, just
// enough of one to exercise Store and Engine without a live Redis instance.
// The lex-ordered set semantics (inclusive "[", exclusive "(", "-"/"+"
// infinities) mirror pkg/redis.Client's ZRangeByLex/ZRevRangeByLex exactly.
type fakeRedis struct {
	mu   sync.Mutex
	kv   map[string]string
	zset map[string]map[string]struct{}
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]string{}, zset: map[string]map[string]struct{}{}}
}

func (f *fakeRedis) SetWithExpiration(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.kv[key] = string(v)
	case string:
		f.kv[key] = v
	default:
		f.kv[key] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (f *fakeRedis) GetString(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", fmt.Errorf("fakeRedis: key %q not found", key)
	}
	return v, nil
}

func (f *fakeRedis) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
	}
	return nil
}

func (f *fakeRedis) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.kv[key]
	return ok, nil
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) MGet(_ context.Context, _ ...string) ([]interface{}, error) { return nil, nil }
func (f *fakeRedis) MGetStrings(_ context.Context, _ ...string) ([]string, error) {
	return nil, nil
}

func (f *fakeRedis) GeoAdd(_ context.Context, _ string, _, _ float64, _ string) error { return nil }
func (f *fakeRedis) GeoRadius(_ context.Context, _ string, _, _, _ float64, _ int) ([]string, error) {
	return nil, nil
}
func (f *fakeRedis) GeoRemove(_ context.Context, _ string, _ string) error { return nil }

func (f *fakeRedis) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }

func (f *fakeRedis) ZAddLex(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.zset[key]
	if !ok {
		set = map[string]struct{}{}
		f.zset[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (f *fakeRedis) ZRemLex(_ context.Context, key string, members ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.zset[key]
	if !ok {
		return 0, nil
	}
	var removed int64
	for _, m := range members {
		if _, present := set[m]; present {
			delete(set, m)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeRedis) ZRangeByLex(_ context.Context, key, min, max string, limit int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.filteredSorted(key, min, max)
	if limit > 0 && int64(len(members)) > limit {
		members = members[:limit]
	}
	return members, nil
}

func (f *fakeRedis) ZRevRangeByLex(_ context.Context, key, min, max string, limit int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.filteredSorted(key, min, max)
	sort.Sort(sort.Reverse(sort.StringSlice(members)))
	if limit > 0 && int64(len(members)) > limit {
		members = members[:limit]
	}
	return members, nil
}

func (f *fakeRedis) ZScanAll(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.zset[key]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// filteredSorted must be called with f.mu held.
func (f *fakeRedis) filteredSorted(key, min, max string) []string {
	set := f.zset[key]
	out := make([]string, 0, len(set))
	lo, hi := parseLexBound(min), parseLexBound(max)
	for m := range set {
		if lexInRange(m, lo, hi) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

type lexBound struct {
	negInf, posInf bool
	val            string
	inclusive      bool
}

func parseLexBound(s string) lexBound {
	switch {
	case s == "-":
		return lexBound{negInf: true}
	case s == "+":
		return lexBound{posInf: true}
	case strings.HasPrefix(s, "["):
		return lexBound{val: s[1:], inclusive: true}
	case strings.HasPrefix(s, "("):
		return lexBound{val: s[1:], inclusive: false}
	default:
		return lexBound{val: s, inclusive: true}
	}
}

func lexInRange(member string, lo, hi lexBound) bool {
	if !lo.negInf {
		if lo.inclusive && member < lo.val {
			return false
		}
		if !lo.inclusive && member <= lo.val {
			return false
		}
	}
	if !hi.posInf {
		if hi.inclusive && member > hi.val {
			return false
		}
		if !hi.inclusive && member >= hi.val {
			return false
		}
	}
	return true
}
