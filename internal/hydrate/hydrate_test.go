package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_preferences.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[preferences](buildOptions(tc)...)

			result, err := decoder.Decode(Context{Slice: tc.Slice}, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded slice mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecoderAcceptsOrderedTreesAndScalars(t *testing.T) {
	prefs, err := NewDecoder[preferences]().Decode(Context{Slice: "prefs"}, tree.NewOrdered("theme", "dark", "limits", map[string]any{"daily": 3}))
	if err != nil {
		t.Fatalf("decode ordered: %v", err)
	}
	if prefs.Theme != "dark" || prefs.Limits.Daily != 3 {
		t.Fatalf("unexpected ordered decode %+v", prefs)
	}

	count, err := NewDecoder[int]().Decode(Context{Slice: "counter"}, float64(5))
	if err != nil || count != 5 {
		t.Fatalf("expected 5, got %d (%v)", count, err)
	}
}

func TestDecoderRejectsMissingValue(t *testing.T) {
	_, err := NewDecoder[int]().Decode(Context{Slice: "counter"}, nil)
	if err == nil || !strings.Contains(err.Error(), `slice "counter" has no value`) {
		t.Fatalf("expected missing value error, got %v", err)
	}
}

func TestDecoderCustomDecoderSeesClone(t *testing.T) {
	input := map[string]any{"theme": "dark"}
	decoder := NewDecoder[preferences](WithCustomDecoder[preferences](func(_ Context, value any) (preferences, error) {
		payload, ok := value.(map[string]any)
		if !ok {
			return preferences{}, errors.New("expected object")
		}
		payload["theme"] = "mutated"
		return preferences{Theme: payload["theme"].(string)}, nil
	}))

	got, err := decoder.Decode(Context{Slice: "prefs"}, input)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Theme != "mutated" || input["theme"] != "dark" {
		t.Fatalf("expected custom decoder to work on a copy, got %+v / %v", got, input)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[preferences] {
	options := []DecoderOption[preferences]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[preferences]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[preferences]())
		}
	}
	for _, hookName := range tc.PreHooks {
		if hookName == "quiet_hours_split" {
			options = append(options, WithPreHook[preferences](quietHoursPreHook))
		}
	}
	for _, hookName := range tc.PostHooks {
		if hookName == "ensure_tag" {
			options = append(options, WithPostHook[preferences](ensureTagPostHook))
		}
	}
	return options
}

func quietHoursPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["quietHours"].(string)
	if !ok || value == "" {
		return payload, nil
	}

	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid quiet hours payload %q", value)
	}

	payload["quietHours"] = map[string]any{
		"start": strings.TrimSpace(parts[0]),
		"end":   strings.TrimSpace(parts[1]),
	}
	return payload, nil
}

func ensureTagPostHook(ctx Context, prefs *preferences) error {
	if prefs == nil {
		return errors.New("preferences are nil")
	}
	if len(prefs.Tags) > 0 {
		return nil
	}
	prefs.Tags = []string{"slice:" + ctx.Slice}
	return nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string         `json:"name"`
	Slice     string         `json:"slice"`
	Input     map[string]any `json:"input"`
	Expect    preferences    `json:"expect"`
	ExpectErr string         `json:"expectErr"`
	PreHooks  []string       `json:"preHooks"`
	PostHooks []string       `json:"postHooks"`
	Options   []string       `json:"options"`
}

type preferences struct {
	Theme      string     `json:"theme"`
	QuietHours quietHours `json:"quietHours"`
	Limits     limits     `json:"limits"`
	Tags       []string   `json:"tags"`
}

type quietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type limits struct {
	Daily int `json:"daily"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
