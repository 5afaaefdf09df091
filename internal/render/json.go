package render

import (
	"encoding/json"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Render(report *schema.Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
