package tokenizer

import (
	"context"
	"sync"
	"testing"
)

var (
	kagomeOnce sync.Once
	kagomeTok  *Kagome
	kagomeErr  error
)

func sharedKagome(t testing.TB) *Kagome {
	t.Helper()
	kagomeOnce.Do(func() {
		kagomeTok, kagomeErr = NewKagome()
	})
	if kagomeErr != nil {
		t.Fatalf("NewKagome: %v", kagomeErr)
	}
	return kagomeTok
}

func TestKagomeTokenize(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the IPA dictionary")
	}
	k := sharedKagome(t)

	got, err := k.Tokenize(context.Background(), "よくない")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tokens %v, want 2", len(got), got)
	}

	want := []struct {
		surface, base string
		pos           POS
	}{
		{"よく", "よい", ADJ},
		{"ない", "ない", AUX},
	}
	for i, w := range want {
		tok := got[i]
		if tok.Index != i || tok.Surface != w.surface || tok.BaseForm != w.base || tok.POS != w.pos {
			t.Errorf("token %d = %v, want %s/%s/%v", i, tok, w.surface, w.base, w.pos)
		}
	}
}

func TestKagomeInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the IPA dictionary")
	}
	k := sharedKagome(t)

	inputs := []string{
		"",
		"親譲りの無鉄砲で小供の時から損ばかりしている。",
		"別段 深い 理由 でも ない。",
		"MacMini が 欲しい!?",
	}
	for _, in := range inputs {
		got, err := k.Tokenize(context.Background(), in)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", in, err)
		}
		for i, tok := range got {
			if tok.Index != i {
				t.Errorf("%q: token %d has Index=%d", in, i, tok.Index)
			}
			if tok.POS == EOS {
				t.Errorf("%q: token %d is EOS", in, i)
			}
			if tok.Surface == " " {
				t.Errorf("%q: whitespace token kept", in)
			}
			if tok.BaseForm == "" || tok.BaseForm == "*" {
				t.Errorf("%q: token %d has base form %q", in, i, tok.BaseForm)
			}
		}
	}
}

func TestKagomeCanceled(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the IPA dictionary")
	}
	k := sharedKagome(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := k.Tokenize(ctx, "よい"); err == nil {
		t.Error("expected context error")
	}
}

func BenchmarkKagomeTokenize(b *testing.B) {
	k := sharedKagome(b)
	text := "親譲りの無鉄砲で小供の時から損ばかりしている。"
	ctx := context.Background()
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for b.Loop() {
		_, _ = k.Tokenize(ctx, text)
	}
}
