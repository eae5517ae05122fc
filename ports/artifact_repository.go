package ports

import "chronorate/domain/circadian"

// ArtifactStore exports corpora as files consumed by the training stage.
type ArtifactStore interface {
	// WritePopulation writes every subject record and returns the file path.
	WritePopulation(pop *circadian.Population) (string, error)
	// ReadPopulation loads the most recently written population.
	ReadPopulation() (*circadian.Population, error)
	// WriteJSON writes an auxiliary artifact such as a summary or feature matrix.
	WriteJSON(name string, v interface{}) (string, error)
}
