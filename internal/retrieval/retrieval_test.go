package retrieval

import (
	"reflect"
	"testing"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

func entries() []state.LongTermEntry {
	return []state.LongTermEntry{
		{ID: "ltm-return-policy", Content: "The return policy is 30 days for a full refund."},
		{ID: "ltm-shipping", Content: "Standard shipping takes 3-5 business days."},
	}
}

// #region retrieve-tests
func TestRetrieve(t *testing.T) {
	r := NewRetriever(DefaultConfig())

	tests := []struct {
		name    string
		input   string
		wantID  string
		wantHit bool
		kind    MatchKind
	}{
		{"whole input substring", "RETURN POLICY", "ltm-return-policy", true, MatchSubstring},
		{"question falls back to keywords", "What is your return policy?", "ltm-return-policy", true, MatchKeyword},
		{"second entry", "how long does shipping take", "ltm-shipping", true, MatchKeyword},
		{"no match", "hello there", "", false, ""},
		{"only stopwords", "what is it?", "", false, ""},
		{"empty input", "   ", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := r.Retrieve(tt.input, entries())
			if ok != tt.wantHit {
				t.Fatalf("expected hit=%v, got %v (%+v)", tt.wantHit, ok, m)
			}
			if !ok {
				return
			}
			if m.Entry.ID != tt.wantID {
				t.Errorf("expected %s, got %s", tt.wantID, m.Entry.ID)
			}
			if m.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, m.Kind)
			}
		})
	}
}

func TestRetrieve_FirstMatchWins(t *testing.T) {
	r := NewRetriever(DefaultConfig())
	list := []state.LongTermEntry{
		{ID: "a", Content: "Refunds take a week."},
		{ID: "b", Content: "Refunds are issued to the original card."},
	}
	m, ok := r.Retrieve("refunds", list)
	if !ok || m.Entry.ID != "a" {
		t.Fatalf("expected first entry, got %+v (ok=%v)", m, ok)
	}
}

func TestRetrieve_KeywordFallbackDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeywordFallback = false
	r := NewRetriever(cfg)
	if _, ok := r.Retrieve("What is your return policy?", entries()); ok {
		t.Fatal("expected no match without keyword fallback")
	}
}

func TestRetrieve_ShortKeywordsIgnored(t *testing.T) {
	r := NewRetriever(DefaultConfig())
	list := []state.LongTermEntry{{ID: "a", Content: "Go is fun."}}
	if _, ok := r.Retrieve("go away now", list); ok {
		t.Fatal("two-letter keyword should not match on its own")
	}
}

func TestRetrieve_ShortMultibyteKeywordsIgnored(t *testing.T) {
	r := NewRetriever(DefaultConfig())
	tests := []struct {
		name  string
		input string
		entry string
	}{
		{"accented", "né zzz", "Il est né ici."},
		{"cjk", "东京 巴黎", "东京很大"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := []state.LongTermEntry{{ID: "a", Content: tt.entry}}
			if m, ok := r.Retrieve(tt.input, list); ok {
				t.Fatalf("two-character keyword matched: %+v", m)
			}
		})
	}
}

func TestRetrieve_MultibyteKeywordAtMinimum(t *testing.T) {
	r := NewRetriever(DefaultConfig())
	list := []state.LongTermEntry{{ID: "a", Content: "Das Café öffnet um neun."}}
	m, ok := r.Retrieve("wann öffnet es", list)
	if !ok || m.Kind != MatchKeyword || m.Keyword != "öffnet" {
		t.Fatalf("expected keyword match on öffnet, got %+v (ok=%v)", m, ok)
	}
}
// #endregion retrieve-tests

// #region consistency-tests
func TestConsistencyCheck(t *testing.T) {
	in := []state.LongTermEntry{
		{ID: "a", Content: "one"},
		{ID: "b", Content: "  "},
		{ID: "a", Content: "dup"},
		{ID: "c", Content: "three"},
	}
	got := consistencyCheck(in)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
// #endregion consistency-tests

// #region keyword-tests
func TestKeywords(t *testing.T) {
	got := Keywords("What is your Return policy? Return it within 30 days!")
	want := []string{"return", "policy", "within", "30", "days"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestKeywords_Empty(t *testing.T) {
	if got := Keywords("the a is"); len(got) != 0 {
		t.Fatalf("expected no keywords, got %v", got)
	}
}
// #endregion keyword-tests
