package quality

import (
	"regexp"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

var (
	clockTime       = regexp.MustCompile(`\d{1,2}:\d{2}`)
	batchPrefix     = regexp.MustCompile(`(?i)\b(batch|carton|reel|box|lot|B-|C-|R-)`)
	plainQuantity   = regexp.MustCompile(`(?i)\b(\d+|approximately|about|around)\b`)
	basicCausal     = regexp.MustCompile(`(?i)\b(why|because|due to|caused by)\b`)
	basicProcedure  = regexp.MustCompile(`(?i)\b(SOP|BRCGS|procedure|section|5\.\d+|3\.\d+)\b`)
	basicVerify     = regexp.MustCompile(`(?i)\b(verify|check|confirm|validate)\b`)
	basicTimeline   = regexp.MustCompile(`(?i)\b(within|by|due|deadline|target)\b`)
	batchCategories = map[string]bool{"finished-goods": true, "raw-material": true}
)

// RequireSpecificDetails lists the concrete details missing from one NCA
// field. Unknown fields yield an empty list.
func RequireSpecificDetails(field string, nca schema.NCA) []string {
	missing := []string{}

	switch field {
	case schema.FieldNCDescription:
		desc := nca.NCDescription
		ncType := nca.NCType
		if ncType == "" {
			ncType = "other"
		}
		if ncType == "incident" && !clockTime.MatchString(desc) {
			missing = append(missing, "time of occurrence")
		}
		if batchCategories[ncType] && !batchPrefix.MatchString(desc) {
			missing = append(missing, "batch/carton numbers")
		}
		if !plainQuantity.MatchString(desc) {
			missing = append(missing, "quantity affected")
		}
	case schema.FieldRootCauseAnalysis:
		a := nca.RootCauseAnalysis
		if a != "" && !basicCausal.MatchString(a) {
			missing = append(missing, "5-Why analysis depth")
		}
	case schema.FieldCorrectiveAction:
		a := nca.CorrectiveAction
		if a == "" {
			break
		}
		if !basicProcedure.MatchString(a) {
			missing = append(missing, "procedure reference")
		}
		if !basicVerify.MatchString(a) {
			missing = append(missing, "verification method")
		}
		if !basicTimeline.MatchString(a) {
			missing = append(missing, "verification timeline")
		}
	}
	return missing
}
