package dictionary

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/worduel/internal/dependencies/random"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/services/evaluator"
	"github.com/mcoot/worduel/internal/storage"
)

//go:embed words/targets.txt
var embeddedTargets string

//go:embed words/allowed.txt
var embeddedAllowed string

// Service holds the set of acceptable guesses and the pool of secret words.
// Every target is also an acceptable guess.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	mu      sync.RWMutex
	targets []string
	allowed map[string]struct{}
	loaded  bool
}

// New creates a new DictionaryService
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "dictionary")),
		allowed: make(map[string]struct{}),
	}
}

// Load populates the dictionary from the first available source: the given
// files, then storage, then the embedded defaults. Lists read from files or
// defaults are written back to storage.
func (s *Service) Load(ctx context.Context, targetsPath, allowedPath string) error {
	if targetsPath != "" {
		return s.LoadFromFiles(ctx, targetsPath, allowedPath)
	}

	err := s.LoadFromStorage(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrDictionaryNotLoaded) {
		s.logger.Warn("could not read dictionary from storage", slog.String("error", err.Error()))
	}

	return s.LoadDefaults(ctx)
}

// LoadFromStorage loads both word lists from storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	targets, err := s.storage.GetDictionaryWords(ctx, model.WordListTargets)
	if err != nil {
		return err
	}
	allowed, err := s.storage.GetDictionaryWords(ctx, model.WordListAllowed)
	if err != nil && !errors.Is(err, model.ErrDictionaryNotLoaded) {
		return err
	}
	if err := s.loadWords(targets, allowed); err != nil {
		return err
	}
	s.logger.Info("dictionary loaded", slog.String("source", "storage"), slog.Int("targets", s.TargetCount()))
	return nil
}

// LoadFromFiles loads word lists from files (one word per line) and saves
// them to storage. allowedPath may be empty, in which case only the targets
// are accepted as guesses.
func (s *Service) LoadFromFiles(ctx context.Context, targetsPath, allowedPath string) error {
	targets, err := readWordFile(targetsPath)
	if err != nil {
		return err
	}

	var allowed []string
	if allowedPath != "" {
		allowed, err = readWordFile(allowedPath)
		if err != nil {
			return err
		}
	}

	if err := s.persistAndLoad(ctx, targets, allowed); err != nil {
		return err
	}
	s.logger.Info("dictionary loaded", slog.String("source", targetsPath), slog.Int("targets", s.TargetCount()))
	return nil
}

// LoadDefaults loads the lists compiled into the binary
func (s *Service) LoadDefaults(ctx context.Context) error {
	targets, err := readWords(strings.NewReader(embeddedTargets))
	if err != nil {
		return err
	}
	allowed, err := readWords(strings.NewReader(embeddedAllowed))
	if err != nil {
		return err
	}

	if err := s.persistAndLoad(ctx, targets, allowed); err != nil {
		return err
	}
	s.logger.Info("dictionary loaded", slog.String("source", "embedded"), slog.Int("targets", s.TargetCount()))
	return nil
}

// LoadWords directly loads word lists (useful for testing)
func (s *Service) LoadWords(targets, allowed []string) error {
	return s.loadWords(targets, allowed)
}

func (s *Service) persistAndLoad(ctx context.Context, targets, allowed []string) error {
	if err := s.loadWords(targets, allowed); err != nil {
		return err
	}

	s.mu.RLock()
	targetCopy := append([]string(nil), s.targets...)
	allowedCopy := make([]string, 0, len(s.allowed))
	for w := range s.allowed {
		allowedCopy = append(allowedCopy, w)
	}
	s.mu.RUnlock()
	sort.Strings(allowedCopy)

	if err := s.storage.SaveDictionaryWords(ctx, model.WordListTargets, targetCopy); err != nil {
		return fmt.Errorf("save targets: %w", err)
	}
	if err := s.storage.SaveDictionaryWords(ctx, model.WordListAllowed, allowedCopy); err != nil {
		return fmt.Errorf("save allowed words: %w", err)
	}
	return nil
}

func (s *Service) loadWords(targets, allowed []string) error {
	pool := make(map[string]struct{}, len(targets))
	valid := make(map[string]struct{}, len(targets)+len(allowed))

	for _, w := range targets {
		w = evaluator.Normalize(w)
		if !evaluator.WellFormed(w) {
			continue
		}
		pool[w] = struct{}{}
		valid[w] = struct{}{}
	}
	for _, w := range allowed {
		w = evaluator.Normalize(w)
		if evaluator.WellFormed(w) {
			valid[w] = struct{}{}
		}
	}

	if len(pool) == 0 {
		return model.ErrEmptyTargetPool
	}

	// Sorted so that a given random draw selects the same word regardless of source
	sorted := make([]string, 0, len(pool))
	for w := range pool {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = sorted
	s.allowed = valid
	s.loaded = true
	return nil
}

// IsValidWord checks if a normalized word is an acceptable guess
func (s *Service) IsValidWord(word string) bool {
	if len(word) != model.WordLength {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return false
	}

	_, ok := s.allowed[strings.ToUpper(word)]
	return ok
}

// RandomTarget draws a secret word uniformly from the target pool
func (s *Service) RandomTarget(rnd random.Random) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return "", model.ErrDictionaryNotLoaded
	}
	return s.targets[rnd.Intn(len(s.targets))], nil
}

// IsLoaded returns whether the dictionary has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// WordCount returns the number of acceptable guesses
func (s *Service) WordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allowed)
}

// TargetCount returns the size of the secret word pool
func (s *Service) TargetCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.targets)
}

func readWordFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readWords(file)
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ServiceInterface is the dictionary surface used by the match engine
type ServiceInterface interface {
	IsValidWord(word string) bool
	RandomTarget(rnd random.Random) (string, error)
	IsLoaded() bool
	WordCount() int
	TargetCount() int
	Load(ctx context.Context, targetsPath, allowedPath string) error
	LoadWords(targets, allowed []string) error
}

var _ ServiceInterface = (*Service)(nil)
