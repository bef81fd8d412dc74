// Package catalog holds the static BSA/AML control framework: 20 controls
// grouped under FinCEN's Five Pillars. The catalog is configuration data
// fixed at compile time; nothing mutates it at runtime, so concurrent
// reads need no synchronization.
package catalog

import (
	"github.com/clearledger/regintel/internal/model"
)

// Control is a single entry in the compliance control framework.
type Control struct {
	ID            string
	Name          string
	Pillar        model.Pillar
	Description   string
	EvidenceTypes []string
	TypicalOwners []model.Team
}

// PrimaryOwner returns the default assignee for remediation work on this
// control: the first typical owner, or the BSA Officer team if the entry
// lists none.
func (c Control) PrimaryOwner() model.Team {
	if len(c.TypicalOwners) > 0 {
		return c.TypicalOwners[0]
	}
	return model.TeamBSAOfficer
}

// Controls is the full fixed framework.
var Controls = []Control{
	// Internal Controls (IC-01 through IC-04)
	{
		ID:            "IC-01",
		Name:          "Transaction Monitoring Program",
		Pillar:        model.PillarInternalControls,
		Description:   "Automated and manual systems to detect suspicious transactions, including threshold-based alerts, behavioral analytics, and pattern detection for money laundering, structuring, and other illicit activity.",
		EvidenceTypes: []string{"TM system configuration", "Alert rules documentation", "Tuning reports", "Alert disposition logs"},
		TypicalOwners: []model.Team{model.TeamAMLOperations, model.TeamRiskManagement},
	},
	{
		ID:            "IC-02",
		Name:          "Suspicious Activity Escalation Procedures",
		Pillar:        model.PillarInternalControls,
		Description:   "Documented procedures for escalating potentially suspicious activity from front-line staff to the BSA/AML team, including timelines, documentation requirements, and decision authority.",
		EvidenceTypes: []string{"Escalation policy", "Case management records", "SAR referral logs"},
		TypicalOwners: []model.Team{model.TeamAMLOperations, model.TeamBSAOfficer},
	},
	{
		ID:            "IC-03",
		Name:          "Sanctions Screening Program",
		Pillar:        model.PillarInternalControls,
		Description:   "Real-time and batch screening of customers, transactions, and counterparties against OFAC SDN lists, sectoral sanctions, and other restricted party lists.",
		EvidenceTypes: []string{"Screening system configuration", "List update logs", "Hit disposition records", "False positive analysis"},
		TypicalOwners: []model.Team{model.TeamAMLOperations, model.TeamComplianceTraining},
	},
	{
		ID:            "IC-04",
		Name:          "Risk Assessment Methodology",
		Pillar:        model.PillarInternalControls,
		Description:   "Enterprise-wide BSA/AML risk assessment identifying inherent risks by customer type, product, geography, and transaction channel, with controls mapping and residual risk ratings.",
		EvidenceTypes: []string{"Risk assessment document", "Risk rating matrices", "Board approval records"},
		TypicalOwners: []model.Team{model.TeamRiskManagement, model.TeamBSAOfficer},
	},
	// BSA Officer (BSA-01 through BSA-04)
	{
		ID:            "BSA-01",
		Name:          "BSA Officer Designation & Authority",
		Pillar:        model.PillarBSAOfficer,
		Description:   "Formal designation of a qualified BSA/AML Officer with sufficient authority, independence, and access to resources to manage the compliance program.",
		EvidenceTypes: []string{"Board resolution", "Job description", "Reporting structure documentation"},
		TypicalOwners: []model.Team{model.TeamBSAOfficer, model.TeamLegalRegulatory},
	},
	{
		ID:            "BSA-02",
		Name:          "Board Reporting & Oversight",
		Pillar:        model.PillarBSAOfficer,
		Description:   "Regular reporting to the Board or Board committee on BSA/AML program status, metrics, examination findings, and significant suspicious activity trends.",
		EvidenceTypes: []string{"Board meeting minutes", "BSA reports to Board", "Committee charters"},
		TypicalOwners: []model.Team{model.TeamBSAOfficer, model.TeamInternalAudit},
	},
	{
		ID:            "BSA-03",
		Name:          "Regulatory Examination Management",
		Pillar:        model.PillarBSAOfficer,
		Description:   "Processes for preparing for, responding to, and remediating findings from FinCEN, state, and other regulatory examinations of the BSA/AML program.",
		EvidenceTypes: []string{"Exam response files", "Remediation tracking", "MRA/MRIA status reports"},
		TypicalOwners: []model.Team{model.TeamBSAOfficer, model.TeamLegalRegulatory},
	},
	{
		ID:            "BSA-04",
		Name:          "Program Documentation & Updates",
		Pillar:        model.PillarBSAOfficer,
		Description:   "Maintenance of comprehensive BSA/AML policies and procedures with version control, regular review cycles, and updates for regulatory changes.",
		EvidenceTypes: []string{"Policy repository", "Version history", "Annual review sign-offs"},
		TypicalOwners: []model.Team{model.TeamBSAOfficer, model.TeamComplianceTraining},
	},
	// Training (TR-01 through TR-04)
	{
		ID:            "TR-01",
		Name:          "New Employee BSA Training",
		Pillar:        model.PillarTraining,
		Description:   "Mandatory BSA/AML training for all new employees within 30 days of hire, covering legal requirements, red flags, and escalation procedures.",
		EvidenceTypes: []string{"Training curriculum", "Completion records", "Quiz scores"},
		TypicalOwners: []model.Team{model.TeamComplianceTraining},
	},
	{
		ID:            "TR-02",
		Name:          "Role-Based AML Training",
		Pillar:        model.PillarTraining,
		Description:   "Specialized training for high-risk roles (customer onboarding, transaction monitoring analysts, customer support) with job-specific scenarios and typologies.",
		EvidenceTypes: []string{"Role-specific curricula", "Completion records by role", "Competency assessments"},
		TypicalOwners: []model.Team{model.TeamComplianceTraining, model.TeamAMLOperations},
	},
	{
		ID:            "TR-03",
		Name:          "Annual Refresher Training",
		Pillar:        model.PillarTraining,
		Description:   "Annual BSA/AML refresher training for all employees covering regulatory updates, new typologies, and lessons learned from internal cases.",
		EvidenceTypes: []string{"Annual training materials", "Completion tracking", "Acknowledgment records"},
		TypicalOwners: []model.Team{model.TeamComplianceTraining},
	},
	{
		ID:            "TR-04",
		Name:          "Training Records & Tracking",
		Pillar:        model.PillarTraining,
		Description:   "System for tracking training completion, sending reminders for overdue training, and generating compliance reports for examinations.",
		EvidenceTypes: []string{"LMS reports", "Completion dashboards", "Exam-ready training summaries"},
		TypicalOwners: []model.Team{model.TeamComplianceTraining},
	},
	// Independent Testing (IT-01 through IT-04)
	{
		ID:            "IT-01",
		Name:          "Annual Independent Audit",
		Pillar:        model.PillarIndependentTesting,
		Description:   "Annual independent audit of the BSA/AML program by qualified internal audit staff or external party, covering all Five Pillars.",
		EvidenceTypes: []string{"Audit reports", "Scope documentation", "Auditor qualifications"},
		TypicalOwners: []model.Team{model.TeamInternalAudit},
	},
	{
		ID:            "IT-02",
		Name:          "Transaction Testing Sampling",
		Pillar:        model.PillarIndependentTesting,
		Description:   "Statistical sampling of transactions to test whether monitoring systems are detecting expected suspicious patterns and whether alerts are appropriately dispositioned.",
		EvidenceTypes: []string{"Sampling methodology", "Test results", "Exception reports"},
		TypicalOwners: []model.Team{model.TeamInternalAudit, model.TeamAMLOperations},
	},
	{
		ID:            "IT-03",
		Name:          "Finding Remediation Tracking",
		Pillar:        model.PillarIndependentTesting,
		Description:   "Formal tracking of audit and examination findings through remediation, with status reporting, root cause analysis, and verification of corrective actions.",
		EvidenceTypes: []string{"Finding tracker", "Remediation evidence", "Closure approvals"},
		TypicalOwners: []model.Team{model.TeamInternalAudit, model.TeamBSAOfficer},
	},
	{
		ID:            "IT-04",
		Name:          "Model Validation",
		Pillar:        model.PillarIndependentTesting,
		Description:   "Independent validation of transaction monitoring and sanctions screening models, including threshold analysis, above/below-the-line testing, and tuning recommendations.",
		EvidenceTypes: []string{"Validation reports", "Model inventory", "Tuning recommendations"},
		TypicalOwners: []model.Team{model.TeamInternalAudit, model.TeamRiskManagement},
	},
	// Customer Due Diligence (CDD-01 through CDD-04)
	{
		ID:            "CDD-01",
		Name:          "Customer Identification Program (CIP)",
		Pillar:        model.PillarCustomerDueDiligence,
		Description:   "Procedures for collecting and verifying customer identity at onboarding, including documentary and non-documentary verification methods for individuals and entities.",
		EvidenceTypes: []string{"CIP procedures", "Verification logs", "Exception handling records"},
		TypicalOwners: []model.Team{model.TeamAMLOperations},
	},
	{
		ID:            "CDD-02",
		Name:          "Beneficial Ownership Identification",
		Pillar:        model.PillarCustomerDueDiligence,
		Description:   "Collection and verification of beneficial ownership information for legal entity customers, including 25% ownership threshold and control prong requirements.",
		EvidenceTypes: []string{"BO certification forms", "Ownership verification records", "Refresh documentation"},
		TypicalOwners: []model.Team{model.TeamAMLOperations},
	},
	{
		ID:            "CDD-03",
		Name:          "Enhanced Due Diligence (EDD)",
		Pillar:        model.PillarCustomerDueDiligence,
		Description:   "Additional due diligence procedures for high-risk customers including PEPs, high-risk jurisdictions, and complex entity structures. Includes source of funds/wealth verification.",
		EvidenceTypes: []string{"EDD procedures", "High-risk customer files", "PEP screening results"},
		TypicalOwners: []model.Team{model.TeamAMLOperations, model.TeamRiskManagement},
	},
	{
		ID:            "CDD-04",
		Name:          "Ongoing Customer Monitoring",
		Pillar:        model.PillarCustomerDueDiligence,
		Description:   "Continuous monitoring of customer activity against expected behavior, periodic refresh of CDD information, and trigger-based reviews for significant changes.",
		EvidenceTypes: []string{"Monitoring rules", "Periodic review schedules", "Trigger event logs"},
		TypicalOwners: []model.Team{model.TeamAMLOperations, model.TeamRiskManagement},
	},
}

// byID is built once at init for O(1) lookup.
var byID = func() map[string]Control {
	m := make(map[string]Control, len(Controls))
	for _, c := range Controls {
		m[c.ID] = c
	}
	return m
}()

// ByID returns the control with the given ID, if it exists.
func ByID(id string) (Control, bool) {
	c, ok := byID[id]
	return c, ok
}

// ByPillar returns all controls under a pillar, in catalog order.
func ByPillar(p model.Pillar) []Control {
	var out []Control
	for _, c := range Controls {
		if c.Pillar == p {
			out = append(out, c)
		}
	}
	return out
}

// AllIDs returns every control ID in catalog order.
func AllIDs() []string {
	ids := make([]string, len(Controls))
	for i, c := range Controls {
		ids[i] = c.ID
	}
	return ids
}
