package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rhuss/vendorbench/pkg/api"
)

// DefaultNumRuns is the number of repetitions per folder when unset.
const DefaultNumRuns = 3

// imageExtensions are matched case-insensitively.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".tiff": true, ".tif": true,
}

// Folder is one numbered data folder with the image it contributes.
type Folder struct {
	Name      string
	Number    int
	ImagePath string
}

// BatchOptions selects the folders of a batch run.
type BatchOptions struct {
	DataDir   string
	StartFrom int
	NumRuns   int
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Folders     int
	Runs        int
	FailedRuns  int
	Calls       int
	FailedCalls int
}

// ScanFolders lists the subfolders of dir whose names are all digits and
// whose value is at least startFrom, in ascending numeric order. Folders
// without an image are skipped with a warning.
func ScanFolders(dir string, startFrom int) ([]Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	var folders []Folder
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, ok := folderNumber(e.Name())
		if !ok {
			slog.Warn("skipping non-numeric folder", "folder", e.Name())
			continue
		}
		if n < startFrom {
			continue
		}

		image, err := firstImage(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if image == "" {
			slog.Warn("skipping folder without image", "folder", e.Name())
			continue
		}
		folders = append(folders, Folder{Name: e.Name(), Number: n, ImagePath: image})
	}

	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].Number < folders[j].Number
	})
	return folders, nil
}

func folderNumber(name string) (int, bool) {
	if name == "" || strings.TrimLeft(name, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// firstImage returns the first image file in dir by name, or "".
func firstImage(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading folder: %w", err)
	}
	// os.ReadDir sorts by file name.
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", nil
}

// RunBatch runs base once per folder and repetition. Each run gets the
// folder's image, the folder name as subject and the 1-based run index as
// item. A failed run is logged and the batch continues; only context
// cancellation stops it early.
func (o *Orchestrator) RunBatch(ctx context.Context, base api.Task, opts BatchOptions) (BatchResult, error) {
	if opts.NumRuns < 1 {
		opts.NumRuns = DefaultNumRuns
	}

	folders, err := ScanFolders(opts.DataDir, opts.StartFrom)
	if err != nil {
		return BatchResult{}, err
	}
	slog.Info("batch started",
		"experiment_id", base.ExperimentID, "folders", len(folders),
		"num_runs", opts.NumRuns, "models", len(o.roster))

	var res BatchResult
	for _, f := range folders {
		res.Folders++
		for run := 1; run <= opts.NumRuns; run++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			task := base
			task.SubjectID = f.Name
			task.ItemID = strconv.Itoa(run)
			task.Request.ImagePath = f.ImagePath

			slog.Info("processing", "folder", f.Name, "run", run, "of", opts.NumRuns)

			res.Runs++
			logs, err := o.Run(ctx, &task)
			for _, l := range logs {
				res.Calls++
				if l.Failed() {
					res.FailedCalls++
				}
			}
			if err != nil {
				res.FailedRuns++
				slog.Error("run failed", "folder", f.Name, "run", run, "error", err)
			}
		}
	}

	slog.Info("batch finished",
		"folders", res.Folders, "runs", res.Runs, "failed_runs", res.FailedRuns,
		"calls", res.Calls, "failed_calls", res.FailedCalls)
	return res, nil
}
