package sessions

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestRegistry(store Store) *Registry {
	return NewRegistry(RegistryOptions{Store: store, Logger: testLogger()})
}

func TestCreateDefaults(t *testing.T) {
	reg := newTestRegistry(nil)
	s := reg.Create("Sunday service")

	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", s.ID, err)
	}
	if s.Title != "Sunday service" || s.Status != StatusStopped {
		t.Errorf("unexpected session: %+v", s)
	}
	if s.Source != "" || s.HasKey() || s.HasProcess {
		t.Errorf("new session should be empty: %+v", s)
	}
	if s.Platform != PlatformYouTube || s.Profile != DefaultProfile() {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestListCreationOrder(t *testing.T) {
	reg := newTestRegistry(nil)
	var want []string
	for _, title := range []string{"c", "a", "b"} {
		want = append(want, reg.Create(title).ID)
	}
	if err := reg.Delete(want[1]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	want = append(want[:1], want[2:]...)
	want = append(want, reg.Create("d").ID)

	list := reg.List()
	if len(list) != len(want) {
		t.Fatalf("List() len = %d, want %d", len(list), len(want))
	}
	for i, s := range list {
		if s.ID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, s.ID, want[i])
		}
	}
}

func TestUpdateAllOrNothing(t *testing.T) {
	reg := newTestRegistry(nil)
	s := reg.Create("t")

	_, err := reg.Update(s.ID, ConfigUpdate{
		Title:       ptr("renamed"),
		Source:      ptr("a.mp4"),
		BitrateKbps: ptr(9999),
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Update() error = %v, want InvalidConfig", err)
	}

	after, _ := reg.Get(s.ID)
	if after.Title != "t" || after.Source != "" || after.Profile.BitrateKbps != 2500 {
		t.Errorf("partial update applied: %+v", after)
	}
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		update  ConfigUpdate
		wantErr bool
	}{
		{"valid profile", ConfigUpdate{BitrateKbps: ptr(5000), Resolution: ptr(Resolution1080p), FPS: ptr(60)}, false},
		{"bad bitrate", ConfigUpdate{BitrateKbps: ptr(2000)}, true},
		{"bad resolution", ConfigUpdate{Resolution: ptr(Resolution("4k"))}, true},
		{"bad fps", ConfigUpdate{FPS: ptr(29)}, true},
		{"bad orientation", ConfigUpdate{Orientation: ptr(Orientation("diagonal"))}, true},
		{"bad platform", ConfigUpdate{Platform: ptr(Platform("twitch"))}, true},
		{"key with space", ConfigUpdate{DestinationKey: ptr("abc def")}, true},
		{"key with slash", ConfigUpdate{DestinationKey: ptr("abc/def")}, true},
		{"multiline source", ConfigUpdate{Source: ptr("a.mp4\nb.mp4")}, true},
		{"long title", ConfigUpdate{Title: ptr(strings.Repeat("x", maxTitleLength+1))}, true},
		{"facebook vertical", ConfigUpdate{Platform: ptr(PlatformFacebook), Orientation: ptr(OrientationVertical)}, false},
		{"loop off", ConfigUpdate{Loop: ptr(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(nil)
			s := reg.Create("t")
			_, err := reg.Update(s.ID, tt.update)
			if (err != nil) != tt.wantErr {
				t.Errorf("Update() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Update() error = %v, want InvalidConfig", err)
			}
		})
	}
}

func TestUpdateTrimsInput(t *testing.T) {
	reg := newTestRegistry(nil)
	s := reg.Create("t")
	s, err := reg.Update(s.ID, ConfigUpdate{Source: ptr("  a.mp4 "), DestinationKey: ptr(" key ")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if s.Source != "a.mp4" || s.DestinationKey != "key" {
		t.Errorf("values not trimmed: %q %q", s.Source, s.DestinationKey)
	}
	if !s.UpdatedAt.After(s.CreatedAt) && !s.UpdatedAt.Equal(s.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", s.UpdatedAt, s.CreatedAt)
	}
}

func TestNotFound(t *testing.T) {
	reg := newTestRegistry(nil)
	if _, err := reg.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v", err)
	}
	if _, err := reg.Update("nope", ConfigUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v", err)
	}
	if err := reg.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := reg.Logs("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Logs() error = %v", err)
	}
}

func TestDeleteTwice(t *testing.T) {
	reg := newTestRegistry(nil)
	s := reg.Create("t")
	if err := reg.Delete(s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := reg.Delete(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want NotFound", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := &memStore{}
	reg := newTestRegistry(store)

	a := reg.Create("first")
	b := reg.Create("second")
	if _, err := reg.Update(b.ID, ConfigUpdate{Source: ptr("b.mp4"), DestinationKey: ptr("KEY")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	restored := newTestRegistry(store)
	if err := restored.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	list := restored.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("restored order wrong: %+v", list)
	}
	if list[1].Source != "b.mp4" || list[1].DestinationKey != "KEY" || list[1].Status != StatusStopped {
		t.Errorf("restored session: %+v", list[1])
	}
}

func TestLoadSkipsBadEntries(t *testing.T) {
	now := time.Now()
	store := &memStore{specs: []Spec{
		{ID: "a", Title: "a", Platform: PlatformYouTube, Profile: DefaultProfile(), CreatedAt: now},
		{ID: "", Title: "no id"},
		{ID: "a", Title: "duplicate"},
		{ID: "b", Title: "b", Platform: PlatformFacebook, Profile: DefaultProfile(), CreatedAt: now},
	}}
	reg := newTestRegistry(store)
	if err := reg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	list := reg.List()
	if len(list) != 2 || list[0].Title != "a" || list[1].ID != "b" {
		t.Errorf("List() = %+v", list)
	}
}

func TestLoadError(t *testing.T) {
	store := &memStore{err: errors.New("disk on fire")}
	reg := newTestRegistry(store)
	if err := reg.Load(); err == nil {
		t.Error("Load() should return store errors")
	}
}

func TestCreateNeverFailsOnPersistError(t *testing.T) {
	store := &memStore{err: errors.New("read-only filesystem")}
	reg := newTestRegistry(store)

	s := reg.Create("still works")
	if s.ID == "" {
		t.Fatal("Create() returned empty session")
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if _, err := reg.Get(s.ID); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestProfileSize(t *testing.T) {
	tests := []struct {
		res         Resolution
		orientation Orientation
		w, h        int
	}{
		{Resolution480p, OrientationLandscape, 854, 480},
		{Resolution720p, OrientationLandscape, 1280, 720},
		{Resolution1080p, OrientationLandscape, 1920, 1080},
		{Resolution720p, OrientationVertical, 720, 1280},
		{Resolution1080p, OrientationVertical, 1080, 1920},
		{Resolution("4k"), OrientationLandscape, 0, 0},
	}
	for _, tt := range tests {
		p := Profile{Resolution: tt.res, Orientation: tt.orientation}
		if w, h := p.Size(); w != tt.w || h != tt.h {
			t.Errorf("Size(%s, %s) = %dx%d, want %dx%d", tt.res, tt.orientation, w, h, tt.w, tt.h)
		}
	}

	if got := (Profile{FPS: 25}).KeyframeInterval(); got != 50 {
		t.Errorf("KeyframeInterval() = %d, want 50", got)
	}
}
