package domain

// StyleInfo is a selectable visual style tag.
type StyleInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Styles lists the supported visual styles.
var Styles = []StyleInfo{
	{ID: "cinematic", Name: "Cinematic"},
	{ID: "realistic", Name: "Realistic"},
	{ID: "anime", Name: "Anime"},
	{ID: "abstract", Name: "Abstract"},
	{ID: "3d-render", Name: "3D Render"},
	{ID: "watercolor", Name: "Watercolor"},
}
