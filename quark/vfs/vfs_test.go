package vfs

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestResolve_Mounts(t *testing.T) {
	f := New()
	if err := f.Mkdir("/working"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	mem := NewMemFS()
	if err := f.Mount(mem, "/working"); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	backend, rel := f.resolve("/working")
	if backend != mem || rel != "/" {
		t.Fatalf("resolve(/working) rel=%q mounted=%v; want rel=/ mounted=true", rel, backend == mem)
	}
	backend, rel = f.resolve("/working/scene.xml")
	if backend != mem || rel != "/scene.xml" {
		t.Fatalf("resolve(/working/scene.xml) rel=%q mounted=%v", rel, backend == mem)
	}
	backend, rel = f.resolve("/workingcopy/a")
	if backend == mem || rel != "/workingcopy/a" {
		t.Fatalf("resolve(/workingcopy/a) should stay on root, got rel=%q", rel)
	}
}

func TestWriteFileLandsInMountedBackend(t *testing.T) {
	f := New()
	if err := f.Mkdir("/working"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	mem := NewMemFS()
	if err := f.Mount(mem, "/working"); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := f.WriteFile("/working/scene.xml", []byte("<mujoco/>")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := afero.ReadFile(mem, "/scene.xml")
	if err != nil {
		t.Fatalf("backend read: %v", err)
	}
	if string(got) != "<mujoco/>" {
		t.Fatalf("backend content = %q", got)
	}

	got, err = f.ReadFile("/working/scene.xml")
	if err != nil || string(got) != "<mujoco/>" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}

	if _, err := f.ReadFile("/scene.xml"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("root should not see mounted file, err=%v", err)
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	f := New()
	if err := f.WriteFile("/working/textures/grid.png", []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	names, err := f.ReadDir("/working/textures")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(names) != 1 || names[0] != "grid.png" {
		t.Fatalf("ReadDir = %v", names)
	}
}

func TestMountErrors(t *testing.T) {
	f := New()
	if err := f.Mount(NewMemFS(), "/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mount on missing dir: err=%v, want ErrNotFound", err)
	}
	if err := f.WriteFile("/file", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := f.Mount(NewMemFS(), "/file"); !errors.Is(err, ErrNotDir) {
		t.Fatalf("mount on file: err=%v, want ErrNotDir", err)
	}
	if err := f.Mkdir("/working"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := f.Mount(NewMemFS(), "/working"); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := f.Mount(NewMemFS(), "/working"); !errors.Is(err, ErrBusy) {
		t.Fatalf("double mount: err=%v, want ErrBusy", err)
	}
	if err := f.Mkdir("/working"); !errors.Is(err, ErrExists) {
		t.Fatalf("second Mkdir: err=%v, want ErrExists", err)
	}
	if err := f.Mkdir("relative"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("relative Mkdir: err=%v, want ErrInvalid", err)
	}
}

func TestUnmount(t *testing.T) {
	f := New()
	if err := f.Mkdir("/working"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := f.Mount(NewMemFS(), "/working"); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := f.WriteFile("/working/a.xml", []byte("a")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := f.Unmount("/working"); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if _, err := f.ReadFile("/working/a.xml"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("file should vanish with its mount, err=%v", err)
	}
	if err := f.Unmount("/working"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Unmount: err=%v", err)
	}
}
