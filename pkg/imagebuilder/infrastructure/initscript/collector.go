package initscript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
)

// Candidates are probed in order, the first existing file wins.
var Candidates = []string{
	"docker/init.sql",
	"sql/init.sql",
	"init.sql",
}

func NewCollector(dir string, logger applogger.Logger) service.InitScriptCollector {
	return &collector{
		dir:    dir,
		logger: logger,
	}
}

type collector struct {
	dir    string
	logger applogger.Logger
}

func (c collector) PurgeGenerated() ([]string, error) {
	c.logger.Info("cleaning up old init scripts...")
	err := os.MkdirAll(c.dir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create init scripts directory %v", c.dir)
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read init scripts directory %v", c.dir)
	}
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !generated(entry.Name()) {
			continue
		}
		c.logger.Info(fmt.Sprintf("removing %v", entry.Name()))
		err = os.Remove(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			return removed, errors.Wrapf(err, "failed to remove %v", entry.Name())
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}

func (c collector) Collect(repositoryName, repositoryPath string, sequence int) (model.InitScript, bool, error) {
	if repositoryName == "" || strings.ContainsAny(repositoryName, `/\`) {
		return model.InitScript{}, false, fmt.Errorf("invalid repository name %q", repositoryName)
	}
	for _, candidate := range Candidates {
		source := filepath.Join(repositoryPath, candidate)
		info, err := os.Stat(source)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		destination := filepath.Join(c.dir, model.InitScriptFileName(sequence, repositoryName))
		c.logger.Info(fmt.Sprintf("found init script %v, copying to %v", candidate, destination))
		err = copyFile(source, destination, info)
		if err != nil {
			return model.InitScript{}, false, err
		}
		return model.InitScript{
			Sequence:       sequence,
			RepositoryName: repositoryName,
			Source:         source,
			Destination:    destination,
		}, true, nil
	}
	return model.InitScript{}, false, nil
}

// generated reports whether name carries a leading sequence number owned by the collector.
func generated(name string) bool {
	if filepath.Ext(name) != model.InitScriptExtension || len(name) < 2 {
		return false
	}
	if name[0] < '0' || name[0] > '9' || name[1] < '0' || name[1] > '9' {
		return false
	}
	sequence, err := strconv.Atoi(name[:2])
	return err == nil && sequence >= model.FirstSequenceNumber
}

// copyFile keeps the mode and modification time of the source. A partial destination is removed
// so a failed copy leaves its sequence number unused.
func copyFile(source, destination string, info os.FileInfo) (err error) {
	in, err := os.Open(source)
	if err != nil {
		return errors.Wrapf(err, "failed to open %v", source)
	}
	defer in.Close()

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to create %v", destination)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(destination)
		}
	}()
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "failed to copy %v to %v", source, destination)
	}
	err = os.Chmod(destination, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to set mode of %v", destination)
	}
	return errors.Wrapf(os.Chtimes(destination, info.ModTime(), info.ModTime()), "failed to set times of %v", destination)
}
