package form

import (
	"reflect"
	"testing"

	"roboclone/internal/config"
	"roboclone/internal/engine"
)

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Source:     `C:\data`,
		Exclusions: []string{"*.tmp", "cache"},
		PostAction: engine.ActionReboot,
		Notify:     true,
	}
	v := FromConfig(cfg)
	if v.Exclusions != "*.tmp; cache" {
		t.Errorf("Exclusions = %q", v.Exclusions)
	}
	if v.Source != `C:\data` || v.PostAction != engine.ActionReboot || !v.Notify {
		t.Errorf("values = %+v", v)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		values  Values
		wantErr string
	}{
		{"both missing", Values{}, "enter a source and a target folder"},
		{"source missing", Values{Target: "E:"}, "enter a source folder"},
		{"target blank", Values{Source: "C:", Target: "   "}, "enter a target folder"},
		{"ok", Values{Source: " C:\\data ", Target: "E:\\backup", Exclusions: "*.tmp;;cache ", DryRun: true, PostAction: engine.ActionShutdown}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Source: "old", Notify: true}
			err := tt.values.Apply(cfg)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				if cfg.Source != "old" {
					t.Error("config changed on error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Source != `C:\data` || cfg.Target != `E:\backup` {
				t.Errorf("folders = %q, %q", cfg.Source, cfg.Target)
			}
			if !reflect.DeepEqual(cfg.Exclusions, []string{"*.tmp", "cache"}) {
				t.Errorf("Exclusions = %q", cfg.Exclusions)
			}
			if !cfg.DryRun || cfg.PostAction != engine.ActionShutdown || cfg.Notify {
				t.Errorf("config = %+v", cfg)
			}
		})
	}
}

func TestBuildLayout(t *testing.T) {
	v := Values{PostAction: engine.ActionReboot}
	f := build(&v, func() {}, func() {})

	if n := f.GetFormItemCount(); n != 6 {
		t.Errorf("form items = %d, want 6", n)
	}
	if n := f.GetButtonCount(); n != 2 {
		t.Errorf("buttons = %d, want 2", n)
	}
	if f.GetFormItemByLabel("After copy") == nil {
		t.Fatal("post-action drop-down missing")
	}
	if got := actionOptions()[actionIndex(v.PostAction)]; got != "reboot" {
		t.Errorf("initial option = %q", got)
	}
}
