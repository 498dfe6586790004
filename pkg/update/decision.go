package update

import "fmt"

type Decision string

const (
	DecisionInstall   Decision = "install"   // Nothing installed yet
	DecisionProceed   Decision = "proceed"   // Replace with a newer or non-comparable release
	DecisionSkip      Decision = "skip"      // Target already installed
	DecisionReinstall Decision = "reinstall" // Force reinstall same release
	DecisionDowngrade Decision = "downgrade" // Replace with an older release
)

// DecideInstall decides what installing target means given the currently
// installed release (empty when nothing is installed). Reinstalling the same
// file needs force; a different build of the same release tag is always
// installed since it is a different archive.
func DecideInstall(current, currentFile, target, targetFile string, force bool) (Decision, string) {
	if current == "" {
		return DecisionInstall, fmt.Sprintf("Installing MinGW %s", target)
	}

	cmp, err := CompareTags(current, target)
	if err != nil {
		return DecisionProceed, fmt.Sprintf("Replacing MinGW %s with %s (version comparison skipped: %v)", current, target, err)
	}

	switch {
	case cmp == 0 && currentFile != "" && currentFile != targetFile:
		return DecisionProceed, fmt.Sprintf("Replacing %s with %s", currentFile, targetFile)
	case cmp == 0 && force:
		return DecisionReinstall, fmt.Sprintf("Reinstalling MinGW %s", target)
	case cmp == 0:
		return DecisionSkip, fmt.Sprintf("MinGW %s is already installed. Use --force to reinstall.", target)
	case cmp < 0:
		return DecisionProceed, fmt.Sprintf("Upgrading MinGW: %s → %s", current, target)
	default:
		return DecisionDowngrade, fmt.Sprintf("Downgrading MinGW: %s → %s", current, target)
	}
}

// DescribeDecision returns a human-readable dry-run status.
func DescribeDecision(d Decision) string {
	switch d {
	case DecisionInstall:
		return "Not installed"
	case DecisionSkip:
		return "Already installed (nothing to do)"
	case DecisionProceed:
		return "Replacement available"
	case DecisionReinstall:
		return "Force reinstall requested"
	case DecisionDowngrade:
		return "Older release selected"
	default:
		return string(d)
	}
}
