package formatting

import (
	"regexp"
	"strings"
)

const maxLabelValueLength = 63

var (
	invalidNameChars  = regexp.MustCompile(`[^a-z0-9\.-]`)
	invalidLabelChars = regexp.MustCompile(`[^A-Za-z0-9_\.-]`)
)

// CleanKubernetesName makes s a valid Kubernetes resource name: lower cased,
// anything but alphanumerics, '-' and '.' replaced by '-', and no leading or
// trailing separator.
// Reference https://kubernetes.io/docs/concepts/overview/working-with-objects/names/#dns-subdomain-names
func CleanKubernetesName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.Trim(invalidNameChars.ReplaceAllString(s, "-"), "-.")
}

// K8LabelsCleanup k8s do not like slash in labels value, we replace the "/"
// by "-". Values are cut to 63 characters and must start and end with an
// alphanumeric character.
func K8LabelsCleanup(s string) string {
	replasoeur := strings.NewReplacer("/", "-", " ", "_", "[", "__", "]", "__")
	s = invalidLabelChars.ReplaceAllString(replasoeur.Replace(strings.TrimSpace(s)), "-")
	if len(s) > maxLabelValueLength {
		s = s[:maxLabelValueLength]
	}
	return strings.Trim(s, "-_.")
}
