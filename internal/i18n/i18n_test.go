package i18n

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "PaperBank" {
		t.Errorf("T(AppTitle) = %q, want 'PaperBank'", got)
	}

	got = T(ctx, "NotPDF")
	if got != "Only PDF files are accepted for extraction." {
		t.Errorf("T(NotPDF) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "MissingTitle")
	if got != "Укажите название работы." {
		t.Errorf("T(MissingTitle) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "UploadSuccess", map[string]any{
		"Subject": "Physics",
		"Year":    2023,
		"Count":   2,
	})
	for _, want := range []string{"Physics", "2023", "2"} {
		if !strings.Contains(got, want) {
			t.Errorf("Td(UploadSuccess) = %q, missing %q", got, want)
		}
	}
}

func TestMissingKeyFallsBackToID(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q", got)
	}
}

func TestStatusPhases(t *testing.T) {
	ctx := initLang(t, "en")

	for i, key := range []string{"StatusConverting", "StatusExtracting", "StatusSubmitting"} {
		got := T(ctx, key)
		want := fmt.Sprintf("%d/3:", i+1)
		if !strings.HasPrefix(got, want) {
			t.Errorf("T(%s) = %q, want %q prefix", key, got, want)
		}
	}
}
