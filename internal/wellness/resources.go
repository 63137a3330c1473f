package wellness

// Resource is a self-help link.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

var resources = []Resource{
	{Title: "Grounding Techniques", URL: "https://www.healthline.com/health/grounding-techniques"},
	{Title: "Breathing Exercise", URL: "https://www.youtube.com/watch?v=inpok4MKVLM"},
	{Title: "Stress Explained", URL: "https://www.youtube.com/watch?v=hnpQrMqDoqE"},
}

// Resources returns a copy of the resource list.
func Resources() []Resource {
	return append([]Resource(nil), resources...)
}
