package ensemble

// Model is a static ensemble member. Accuracy and Training are display
// metadata only; they do not influence the simulated scores.
type Model struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Accuracy float64 `json:"accuracy"`
	Training string  `json:"training"`
}

// DefaultModels is the fixed five-model roster.
var DefaultModels = []Model{
	{ID: 1, Name: "PointNet-Base", Accuracy: 0.852, Training: "KITTI-Full"},
	{ID: 2, Name: "PointNet-Aug", Accuracy: 0.847, Training: "Data-Augmented"},
	{ID: 3, Name: "PointNet-Deep", Accuracy: 0.861, Training: "Deep-Architecture"},
	{ID: 4, Name: "PointNet-Ensemble", Accuracy: 0.839, Training: "Multi-Scale"},
	{ID: 5, Name: "PointNet-Refined", Accuracy: 0.855, Training: "Fine-Tuned"},
}

// Models returns a copy of the default roster.
func Models() []Model {
	out := make([]Model, len(DefaultModels))
	copy(out, DefaultModels)
	return out
}
