package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/ui-acceptor/reporting"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	AllLogsFilename    = "all.log"
)

// ResultSink is an interface for different ways of consuming case verdicts
type ResultSink interface {
	// Consume processes a single verdict
	Consume(verdict *types.Verdict, runID string) error
	// Complete is called when all verdicts have been consumed
	Complete(runID string) error
}

// RunInfo describes the run a FileLogger records.
type RunInfo struct {
	Target       string
	CasesVersion string
	Driver       string
}

// FileLogger writes case transcripts and reports for one run
type FileLogger struct {
	baseDir      string                // Base directory for logs
	logDir       string                // testrun-<runID> directory
	allLogsFile  string                // Path to the combined log file
	mu           sync.Mutex            // Protects concurrent file operations
	sinks        []ResultSink          // Collection of result consumers
	asyncWriters map[string]*AsyncFile // Map of async file writers
	runID        string                // Current run ID
}

// AsyncFile provides non-blocking file writing capabilities
type AsyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewAsyncFile creates a new AsyncFile for non-blocking writes
func NewAsyncFile(path string) (*AsyncFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &AsyncFile{
		file:  file,
		queue: make(chan []byte, 100),
	}

	af.wg.Add(1)
	go af.processQueue()

	return af, nil
}

// Write queues data to be written asynchronously
func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.stopped {
		return fmt.Errorf("async file is closed")
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	af.queue <- dataCopy
	return nil
}

func (af *AsyncFile) processQueue() {
	defer af.wg.Done()

	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
		}
	}
}

// Close stops the async writer and closes the file
func (af *AsyncFile) Close() error {
	af.mu.Lock()
	if !af.stopped {
		af.stopped = true
		close(af.queue)
	}
	af.mu.Unlock()

	af.wg.Wait()
	return af.file.Close()
}

// NewFileLogger creates the run directory and the default sinks: all.log,
// report.json, summary.log and results.html.
func NewFileLogger(baseDir string, runID string, info RunInfo) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", logDir, err)
	}

	logger := &FileLogger{
		baseDir:      baseDir,
		logDir:       logDir,
		allLogsFile:  filepath.Join(logDir, AllLogsFilename),
		asyncWriters: make(map[string]*AsyncFile),
		runID:        runID,
	}

	logger.sinks = []ResultSink{
		&AllLogsFileSink{logger: logger},
		reporting.NewJSONReportSink(baseDir, info.Target, info.CasesVersion, info.Driver),
		reporting.NewTextSummarySink(baseDir, info.Target),
		reporting.NewHTMLSink(baseDir, info.Target, info.CasesVersion, info.Driver),
	}

	return logger, nil
}

// AddSink registers an additional sink
func (l *FileLogger) AddSink(sink ResultSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sink)
}

func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, exists := l.asyncWriters[path]; exists {
		return writer, nil
	}
	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	l.asyncWriters[path] = writer
	return writer, nil
}

func (l *FileLogger) closeAllWriters() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.asyncWriters {
		_ = writer.Close()
	}
	l.asyncWriters = make(map[string]*AsyncFile)
}

// GetDirectoryForRunID returns the path for a specific runID
func (l *FileLogger) GetDirectoryForRunID(runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("runID cannot be empty")
	}
	if runID == l.runID {
		return l.logDir, nil
	}
	return filepath.Join(l.baseDir, RunDirectoryPrefix+runID), nil
}

// GetAllLogsFileForRunID returns the path to the all.log file for the given runID
func (l *FileLogger) GetAllLogsFileForRunID(runID string) (string, error) {
	dir, err := l.GetDirectoryForRunID(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AllLogsFilename), nil
}

// LogVerdict feeds a verdict to every registered sink
func (l *FileLogger) LogVerdict(verdict *types.Verdict, runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	l.mu.Lock()
	sinks := append([]ResultSink(nil), l.sinks...)
	l.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Consume(verdict, runID); err != nil {
			return fmt.Errorf("error in sink: %w", err)
		}
	}
	return nil
}

// Complete finalizes all sinks and closes all file writers
func (l *FileLogger) Complete(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	l.mu.Lock()
	sinks := append([]ResultSink(nil), l.sinks...)
	l.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Complete(runID); err != nil {
			return fmt.Errorf("error completing sink: %w", err)
		}
	}

	l.closeAllWriters()
	return nil
}

// GetBaseDir returns the directory of the current run
func (l *FileLogger) GetBaseDir() string {
	return l.logDir
}

// GetAllLogsFile returns the path to the all logs file
func (l *FileLogger) GetAllLogsFile() string {
	return l.allLogsFile
}

// GetRunID returns the current runID
func (l *FileLogger) GetRunID() string {
	return l.runID
}

// AllLogsFileSink writes a transcript of every case to a single all.log file
type AllLogsFileSink struct {
	logger *FileLogger
}

// Consume appends the transcript of one verdict to all.log
func (s *AllLogsFileSink) Consume(v *types.Verdict, runID string) error {
	allLogsFile, err := s.logger.GetAllLogsFileForRunID(runID)
	if err != nil {
		return err
	}
	writer, err := s.logger.getAsyncWriter(allLogsFile)
	if err != nil {
		return err
	}

	var content strings.Builder
	fmt.Fprintf(&content, "\n")
	fmt.Fprintf(&content, "┌─────────────────────────────────────────────────────────────────────┐\n")
	fmt.Fprintf(&content, "│ CASE: %-62s │\n", truncateString(v.CaseID+" "+v.Name, 62))
	fmt.Fprintf(&content, "├─────────────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&content, "│ Status:   %-58s │\n", v.Status())
	fmt.Fprintf(&content, "│ Suite:    %-58s │\n", v.Suite)
	fmt.Fprintf(&content, "│ Category: %-58s │\n", v.Category)
	fmt.Fprintf(&content, "│ Attempt:  %-58d │\n", v.Attempt)
	fmt.Fprintf(&content, "│ Latency:  %-58s │\n", v.Latency)
	fmt.Fprintf(&content, "│ Duration: %-58s │\n", v.Duration)
	fmt.Fprintf(&content, "│ Time:     %-58s │\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&content, "└─────────────────────────────────────────────────────────────────────┘\n\n")

	if len(v.States) > 0 {
		parts := make([]string, len(v.States))
		for i, st := range v.States {
			parts[i] = string(st)
		}
		fmt.Fprintf(&content, "STATES: %s\n\n", strings.Join(parts, " -> "))
	}
	fmt.Fprintf(&content, "EXPECTED:\n~~~~~~~~~\n%s\n\n", indentText(v.Expected, "  "))
	fmt.Fprintf(&content, "OBSERVED:\n~~~~~~~~~\n%s\n\n", indentText(v.Observed, "  "))
	if v.PartialObserved != "" {
		fmt.Fprintf(&content, "PARTIAL OBSERVED:\n~~~~~~~~~~~~~~~~~\n%s\n\n", indentText(v.PartialObserved, "  "))
	}
	if v.Error != nil {
		fmt.Fprintf(&content, "ERROR (%s):\n~~~~~~\n%s\n\n", v.Kind, v.Error.Error())
	}
	if v.Diagnostic != "" {
		fmt.Fprintf(&content, "DIAGNOSTIC:\n~~~~~~~~~~~\n%s\n", indentText(v.Diagnostic, "  "))
	}

	return writer.Write([]byte(stripansi.Strip(content.String())))
}

// Complete is a no-op for AllLogsFileSink
func (s *AllLogsFileSink) Complete(runID string) error {
	return nil
}

// indentText adds indentation to each non-empty line
func indentText(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// truncateString truncates a string to maxLen runes, adding an ellipsis if needed
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
