package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX graph input/output names fixed by the model export.
const (
	inputChars    = "x_char"
	inputFeatures = "x_feat"
	outputLogit   = "logit"
)

// artifacts holds the companion metadata shipped next to the ONNX model:
// the character vocabulary and the feature normalization constants.
type artifacts struct {
	vocab    map[string]int64
	mean     []float32
	std      []float32
	prefixes []string
}

// Model wraps the CharCNN ONNX session. Predict returns the calibrated
// probability that a candidate string is a genuine secret.
//
// The session and its pre-allocated tensors are not safe for concurrent
// runs, so inference is serialized behind a mutex.
type Model struct {
	session *ort.AdvancedSession
	art     artifacts
	maxLen  int

	charTensor *ort.Tensor[int64]
	featTensor *ort.Tensor[float32]
	output     *ort.Tensor[float32]

	mu sync.Mutex
}

// Load initializes the ONNX session and companion metadata from bundleDir.
// A missing or unreadable artifact is a startup-time fatal condition: Load
// fails rather than degrading, because a missing model would change every
// subsequent verdict.
func Load(bundleDir string, maxLen int) (*Model, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	if maxLen <= 0 {
		maxLen = 256
	}

	modelPath := filepath.Join(bundleDir, "charcnn.onnx")
	vocabPath := filepath.Join(bundleDir, "vocab.json")
	normPath := filepath.Join(bundleDir, "feat_norm.json")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	art, err := loadArtifacts(vocabPath, normPath)
	if err != nil {
		return nil, err
	}

	featDim := structuralFeatureDim(art.prefixes)
	if len(art.mean) != featDim || len(art.std) != featDim {
		return nil, fmt.Errorf("feat_norm.json dimension mismatch: mean=%d std=%d want=%d",
			len(art.mean), len(art.std), featDim)
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	charTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1, int64(maxLen)))
	if err != nil {
		return nil, fmt.Errorf("allocate %s tensor: %w", inputChars, err)
	}
	featTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(featDim)))
	if err != nil {
		return nil, fmt.Errorf("allocate %s tensor: %w", inputFeatures, err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputChars, inputFeatures},
		[]string{outputLogit},
		[]ort.Value{charTensor, featTensor},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Model{
		session:    session,
		art:        art,
		maxLen:     maxLen,
		charTensor: charTensor,
		featTensor: featTensor,
		output:     output,
	}, nil
}

// Predict runs inference on one candidate string and returns the
// probability that it is a real secret.
func (m *Model) Predict(candidate string) (float64, error) {
	if m == nil || m.session == nil {
		return 0, errors.New("classifier model not initialized")
	}

	chars := encodeChars(m.art.vocab, candidate, m.maxLen)
	feats := normalizeFeatures(structuralFeatures(candidate, m.art.prefixes), m.art.mean, m.art.std)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.charTensor.GetData(), chars)
	copy(m.featTensor.GetData(), feats)

	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}

	raw := m.output.GetData()
	if len(raw) == 0 {
		return 0, errors.New("onnx run produced no output")
	}
	return sigmoid(float64(raw[0])), nil
}

func sigmoid(logit float64) float64 {
	return 1.0 / (1.0 + math.Exp(-logit))
}

func loadArtifacts(vocabPath, normPath string) (artifacts, error) {
	var art artifacts

	data, err := os.ReadFile(vocabPath)
	if err != nil {
		return art, fmt.Errorf("read vocab: %w", err)
	}
	if err := json.Unmarshal(data, &art.vocab); err != nil {
		return art, fmt.Errorf("decode vocab: %w", err)
	}
	if len(art.vocab) == 0 {
		return art, fmt.Errorf("vocab is empty at %s", vocabPath)
	}

	data, err = os.ReadFile(normPath)
	if err != nil {
		return art, fmt.Errorf("read feature normalization: %w", err)
	}
	var norm struct {
		Mean     []float32 `json:"mean"`
		Std      []float32 `json:"std"`
		Prefixes []string  `json:"prefixes"`
	}
	if err := json.Unmarshal(data, &norm); err != nil {
		return art, fmt.Errorf("decode feature normalization: %w", err)
	}
	if len(norm.Mean) == 0 || len(norm.Std) == 0 {
		return art, fmt.Errorf("feature normalization missing mean/std at %s", normPath)
	}

	art.mean = norm.Mean
	art.std = norm.Std
	art.prefixes = norm.Prefixes
	return art, nil
}

// resolveSharedLibraryPath locates the platform onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common names/locations
// are probed, starting with the bundle itself.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
