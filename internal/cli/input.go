package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/itinerary/internal/core/domain"
)

// readRequest loads an itinerary from a JSON or YAML file, or stdin for "-".
// Files ending in .yaml or .yml are YAML; everything else is tried as JSON first.
func readRequest(path string) (*domain.ItineraryRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read itinerary: %w", err)
	}
	return decodeRequest(data, filepath.Ext(path))
}

func decodeRequest(data []byte, ext string) (*domain.ItineraryRequest, error) {
	var req domain.ItineraryRequest
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to parse YAML itinerary: %w", err)
		}
		return &req, nil
	}

	if jsonErr := json.Unmarshal(data, &req); jsonErr != nil {
		req = domain.ItineraryRequest{}
		if yamlErr := yaml.Unmarshal(data, &req); yamlErr != nil {
			return nil, fmt.Errorf("failed to parse itinerary: %w", jsonErr)
		}
	}
	return &req, nil
}
