package app

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

const defaultFilename = "downloaded_file"

// Notifier reports download outcomes to the user
type Notifier interface {
	NotifyDuplicatePaused(url string)
	NotifyDownloadCancelled(url string)
	NotifyDownloadCompleted(path string)
	NotifyDownloadFailed(url string, err error)
}

// DownloadOutcome describes what a download run did
type DownloadOutcome struct {
	URL          string
	OutputPath   string
	Hash         string
	Capabilities domain.ServerCapabilities
	Action       domain.Action
}

// DownloadFlow checks a wget or curl download against the decision service
// before running it, and tags the result with its fingerprint.
type DownloadFlow struct {
	fingerprinter domain.Fingerprinter
	decisions     domain.DecisionService
	runner        domain.CommandRunner
	tagger        domain.MetadataTagger
	notifier      Notifier
	device        func() domain.DeviceInfo
	logger        *zap.Logger
}

// NewDownloadFlow creates a new download flow
func NewDownloadFlow(
	fingerprinter domain.Fingerprinter,
	decisions domain.DecisionService,
	runner domain.CommandRunner,
	tagger domain.MetadataTagger,
	notifier Notifier,
	device func() domain.DeviceInfo,
	logger *zap.Logger,
) *DownloadFlow {
	return &DownloadFlow{
		fingerprinter: fingerprinter,
		decisions:     decisions,
		runner:        runner,
		tagger:        tagger,
		notifier:      notifier,
		device:        device,
		logger:        logger,
	}
}

// Run handles one invocation of tool with its original arguments
func (f *DownloadFlow) Run(ctx context.Context, tool string, args []string) (*DownloadOutcome, error) {
	if tool != "wget" && tool != "curl" {
		return nil, fmt.Errorf("unsupported download tool: %s", tool)
	}
	if _, err := f.runner.LookPath(tool); err != nil {
		return nil, err
	}

	rawURL := ExtractURL(args)
	if rawURL == "" {
		return nil, domain.ErrNoURL
	}

	outcome := &DownloadOutcome{URL: rawURL}
	args, outcome.OutputPath = ensureOutputFlag(tool, args, rawURL)

	headers, err := f.fingerprinter.Head(ctx, rawURL)
	if err != nil {
		f.logger.Warn("Failed to fetch headers", zap.String("url", rawURL), zap.Error(err))
	}

	outcome.Hash, outcome.Capabilities = f.fingerprinter.Fingerprint(ctx, rawURL, headers)
	if outcome.Hash == "" {
		f.logger.Info("No fingerprint available", zap.String("url", rawURL))
	}

	req := f.buildRequest(rawURL, path.Base(outcome.OutputPath), headers, outcome.Hash)
	outcome.Action = f.decisions.ProcessDownload(ctx, req)

	f.logger.Info("Decision received",
		zap.String("url", rawURL),
		zap.String("action", outcome.Action.String()))

	switch outcome.Action {
	case domain.ActionProceed:
		if err := f.runner.Run(ctx, tool, args); err != nil {
			f.notifier.NotifyDownloadFailed(rawURL, err)
			return outcome, err
		}
		f.tag(outcome)
		f.notifier.NotifyDownloadCompleted(outcome.OutputPath)
	case domain.ActionPause:
		f.notifier.NotifyDuplicatePaused(rawURL)
	default:
		f.notifier.NotifyDownloadCancelled(rawURL)
	}

	return outcome, nil
}

func (f *DownloadFlow) tag(outcome *DownloadOutcome) {
	if outcome.Hash == "" || outcome.OutputPath == "" || outcome.OutputPath == "-" {
		return
	}
	if err := f.tagger.Tag(outcome.OutputPath, outcome.Hash); err != nil {
		f.logger.Warn("Failed to tag downloaded file",
			zap.String("path", outcome.OutputPath),
			zap.Error(err))
		return
	}
	f.logger.Info("Tagged downloaded file",
		zap.String("path", outcome.OutputPath),
		zap.String("hash", outcome.Hash))
}

func (f *DownloadFlow) buildRequest(rawURL, filename string, headers map[string]string, hash string) *domain.DecisionRequest {
	fetched := make(map[string]interface{}, len(headers))
	for k, v := range headers {
		fetched[k] = v
	}

	var partialHash *string
	if hash != "" {
		partialHash = &hash
	}

	device := f.device()
	id := uuid.New().String()

	return &domain.DecisionRequest{
		ID: id,
		Data: &domain.DecisionData{
			DownloadMetaData: map[string]interface{}{
				"id":       id,
				"url":      rawURL,
				"filename": filename,
				"referrer": "",
				"finalUrl": rawURL,
			},
			FetchedCompleteMetadata: fetched,
			FileDetails: map[string]interface{}{
				"id":               id,
				"downloadFileName": filename,
				"domain":           hostOf(rawURL),
			},
			PartialHash: partialHash,
			DeviceInfo:  &device,
		},
	}
}

// ExtractURL returns the last http(s) argument, or "" if there is none
func ExtractURL(args []string) string {
	for i := len(args) - 1; i >= 0; i-- {
		if strings.HasPrefix(args[i], "http://") || strings.HasPrefix(args[i], "https://") {
			return args[i]
		}
	}
	return ""
}

// ProposedFilename derives a local filename from the URL path
func ProposedFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFilename
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return defaultFilename
	}
	return name
}

// ensureOutputFlag returns args with an explicit output file and that file's
// path. An existing output flag is kept as given.
func ensureOutputFlag(tool string, args []string, rawURL string) ([]string, string) {
	if output, ok := findOutput(tool, args, rawURL); ok {
		return args, output
	}

	proposed := ProposedFilename(rawURL)
	flag := "-O"
	if tool == "curl" {
		flag = "-o"
	}
	withOutput := make([]string, 0, len(args)+2)
	withOutput = append(withOutput, flag, proposed)
	withOutput = append(withOutput, args...)
	return withOutput, proposed
}

func findOutput(tool string, args []string, rawURL string) (string, bool) {
	short, long := "-O", "--output-document"
	if tool == "curl" {
		short, long = "-o", "--output"
	}

	for i, arg := range args {
		switch {
		case arg == short || arg == long:
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", true
		case strings.HasPrefix(arg, long+"="):
			return strings.TrimPrefix(arg, long+"="), true
		case strings.HasPrefix(arg, short) && len(arg) > len(short) && !strings.HasPrefix(arg, "--"):
			return strings.TrimPrefix(arg, short), true
		case tool == "curl" && (arg == "-O" || arg == "--remote-name"):
			return ProposedFilename(rawURL), true
		}
	}
	return "", false
}
