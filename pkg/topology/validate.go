package topology

// IssueCode is a stable, machine-readable link-validation code. Codes cross
// the API boundary unchanged.
type IssueCode string

// Link-validation issue codes.
const (
	IssueMissingEndpoint      IssueCode = "missing-endpoint"
	IssueExtraEndpoint        IssueCode = "extra-endpoint"
	IssueUnresolvedEndpoint   IssueCode = "unresolved-endpoint"
	IssueMissingHostInterface IssueCode = "missing-host-interface"
	IssueMissingRemote        IssueCode = "missing-remote"
	IssueMissingVNI           IssueCode = "missing-vni"
	IssueMissingDstPort       IssueCode = "missing-dst-port"
	IssueUnknownKind          IssueCode = "unknown-link-kind"
)

// ValidateLink checks a classified link against its kind's shape rules and
// returns every violated rule. It is pure and total: a nil link and every
// malformed shape yield codes, never a panic, and violations accumulate
// instead of short-circuiting.
func ValidateLink(l *Link) []IssueCode {
	if l == nil {
		return []IssueCode{IssueMissingEndpoint}
	}

	var issues []IssueCode

	switch l.Kind {
	case LinkVeth, "":
		switch {
		case len(l.Endpoints) < 2:
			issues = append(issues, IssueMissingEndpoint)
		case len(l.Endpoints) > 2:
			issues = append(issues, IssueExtraEndpoint)
		}
		for _, ep := range l.Endpoints {
			if ep.Node == "" {
				issues = append(issues, IssueUnresolvedEndpoint)
			}
		}

	case LinkHost, LinkMgmtNet:
		issues = append(issues, validateSingleEndpoint(l)...)
		if l.HostInterface == "" {
			issues = append(issues, IssueMissingHostInterface)
		}

	case LinkMacvlan, LinkDummy:
		issues = append(issues, validateSingleEndpoint(l)...)

	case LinkVxlan, LinkVxlanStitch:
		issues = append(issues, validateSingleEndpoint(l)...)
		if l.Remote == "" {
			issues = append(issues, IssueMissingRemote)
		}
		if l.VNI == 0 {
			issues = append(issues, IssueMissingVNI)
		}
		if l.UDPPort == 0 {
			issues = append(issues, IssueMissingDstPort)
		}

	default:
		issues = append(issues, IssueUnknownKind)
	}

	return issues
}

func validateSingleEndpoint(l *Link) []IssueCode {
	var issues []IssueCode
	if len(l.Endpoints) == 0 {
		return []IssueCode{IssueMissingEndpoint}
	}
	if len(l.Endpoints) > 1 {
		issues = append(issues, IssueExtraEndpoint)
	}
	if l.Endpoints[0].Node == "" {
		issues = append(issues, IssueUnresolvedEndpoint)
	}
	return issues
}
