package cas

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

// Migrate plans, and for domain.Apply executes, the upgrade of older layouts:
//
//  1. caches kept below $CARGO_HOME/.cargo are moved up into $CARGO_HOME;
//  2. layout 1 artifact trees in binary-cache/<fp> become <root>/<fp>/target.
//
// A failing step is recorded and does not stop the remaining steps. The
// layout marker is only written when every other step succeeded, so a
// failed migration can be re-run.
func (s *Store) Migrate(kind domain.MigrationKind) (domain.MigrationReport, error) {
	steps, err := s.plan()
	if err != nil {
		return domain.MigrationReport{Kind: kind}, err
	}

	report := domain.MigrationReport{Kind: kind, Steps: steps}
	if kind == domain.DryRun {
		return report, nil
	}

	for _, step := range steps {
		if step.Action == domain.ActionWriteMarker && len(report.Failures) > 0 {
			report.Failures = append(report.Failures, domain.MigrationFailure{
				Step: step,
				Err:  zerr.New("skipped after earlier failures"),
			})
			continue
		}
		if err := s.applyStep(step); err != nil {
			report.Failures = append(report.Failures, domain.MigrationFailure{Step: step, Err: err})
			continue
		}
		report.Applied = append(report.Applied, step)
	}

	if len(report.Failures) > 0 {
		return report, zerr.With(
			zerr.Wrap(domain.ErrMigrationFailed, "some migration steps failed"),
			"failed", len(report.Failures),
		)
	}
	return report, nil
}

func (s *Store) plan() ([]domain.MigrationStep, error) {
	l := s.layout
	var steps []domain.MigrationStep

	legacy := l.LegacyHome()
	relocated := make(map[string]bool)
	targets := map[string]string{
		domain.ScriptCacheDirName: l.Root,
		domain.BinaryCacheDirName: l.BinaryCache(),
	}
	for _, name := range []string{domain.ScriptCacheDirName, domain.BinaryCacheDirName} {
		from := filepath.Join(legacy, name)
		to := targets[name]
		if !s.isDir(from) || s.exists(to) {
			continue
		}
		steps = append(steps, domain.MigrationStep{Action: domain.ActionMove, From: from, To: to})
		relocated[name] = true
	}
	if len(relocated) > 0 {
		names, err := s.readDirNames(legacy)
		if err != nil {
			return nil, err
		}
		if allIn(names, relocated) {
			steps = append(steps, domain.MigrationStep{Action: domain.ActionRemoveDir, From: legacy})
		}
	}

	// Before the relocation runs, layout 1 artifacts are still below the legacy base.
	binarySrc := l.BinaryCache()
	if relocated[domain.BinaryCacheDirName] {
		binarySrc = filepath.Join(legacy, domain.BinaryCacheDirName)
	}
	if s.isDir(binarySrc) {
		names, err := s.readDirNames(binarySrc)
		if err != nil {
			return nil, err
		}
		moved := 0
		for _, name := range names {
			fp := domain.Fingerprint(name)
			if !fp.IsValid() || !s.isDir(filepath.Join(binarySrc, name)) || s.exists(l.TargetDir(fp)) {
				continue
			}
			steps = append(steps, domain.MigrationStep{
				Action: domain.ActionMove,
				From:   filepath.Join(l.BinaryCache(), name),
				To:     l.TargetDir(fp),
			})
			moved++
		}
		if moved == len(names) {
			steps = append(steps, domain.MigrationStep{Action: domain.ActionRemoveDir, From: l.BinaryCache()})
		}
	}

	if s.layoutVersion() < domain.CurrentLayoutVersion {
		steps = append(steps, domain.MigrationStep{Action: domain.ActionWriteMarker, To: l.MarkerPath()})
	}
	return steps, nil
}

func (s *Store) applyStep(step domain.MigrationStep) error {
	switch step.Action {
	case domain.ActionMove:
		if err := s.fs.MkdirAll(filepath.Dir(step.To), domain.DirPerm); err != nil {
			return ioError(err, "failed to create directory", filepath.Dir(step.To))
		}
		if err := s.fs.Rename(step.From, step.To); err != nil {
			return ioError(err, "failed to move directory", step.From)
		}
	case domain.ActionRemoveDir:
		names, err := s.readDirNames(step.From)
		if err != nil {
			return err
		}
		if len(names) > 0 {
			return zerr.With(zerr.Wrap(domain.ErrCacheIO, "directory is not empty"), "path", step.From)
		}
		if err := s.fs.Remove(step.From); err != nil {
			return ioError(err, "failed to remove directory", step.From)
		}
	case domain.ActionWriteMarker:
		marker := strconv.Itoa(domain.CurrentLayoutVersion) + "\n"
		return s.writeAtomic(step.To, []byte(marker))
	}
	return nil
}

// layoutVersion returns the recorded layout, or 1 when no marker exists.
func (s *Store) layoutVersion() int {
	data, err := afero.ReadFile(s.fs, s.layout.MarkerPath())
	if err != nil {
		return 1
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 1
	}
	return v
}

func (s *Store) readDirNames(dir string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioError(err, "failed to read directory", dir)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) isDir(path string) bool {
	ok, err := afero.IsDir(s.fs, path)
	return err == nil && ok
}

func (s *Store) exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

func allIn(names []string, set map[string]bool) bool {
	for _, name := range names {
		if !set[name] {
			return false
		}
	}
	return true
}
