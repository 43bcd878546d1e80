package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReportInfo describes one archived report file.
type ReportInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive stores generated reports in a single directory.
type Archive struct {
	dir    string
	logger *slog.Logger
}

// NewArchive creates an archive rooted at dir.
func NewArchive(dir string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{dir: dir, logger: logger}
}

// Dir returns the archive directory.
func (a *Archive) Dir() string {
	return a.dir
}

// Save writes a report into the archive under the given name.
func (a *Archive) Save(name string, data []byte) error {
	clean, err := a.sanitize(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	path := filepath.Join(a.dir, clean)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", clean, err)
	}

	a.logger.Info("report archived",
		slog.String("name", clean),
		slog.Int("bytes", len(data)))
	return nil
}

// List returns archived reports, newest first.
func (a *Archive) List() ([]ReportInfo, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return []ReportInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	reports := make([]ReportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isReportName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, ReportInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].Name > reports[j].Name
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Open returns the contents of an archived report.
func (a *Archive) Open(name string) ([]byte, error) {
	clean, err := a.sanitize(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(a.dir, clean))
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", clean, err)
	}
	return data, nil
}

// Prune deletes the oldest reports so at most keep remain. A negative
// keep disables pruning.
func (a *Archive) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, nil
	}
	reports, err := a.List()
	if err != nil {
		return 0, err
	}
	if len(reports) <= keep {
		return 0, nil
	}

	removed := 0
	for _, report := range reports[keep:] {
		if err := os.Remove(filepath.Join(a.dir, report.Name)); err != nil {
			return removed, fmt.Errorf("remove report %s: %w", report.Name, err)
		}
		removed++
	}

	a.logger.Info("report archive pruned",
		slog.Int("removed", removed),
		slog.Int("kept", keep))
	return removed, nil
}

// sanitize rejects names that could escape the archive directory.
func (a *Archive) sanitize(name string) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == ".." || clean != name {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	if !isReportName(clean) {
		return "", fmt.Errorf("unsupported report name %q", name)
	}
	return clean, nil
}

func isReportName(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".csv"
}
