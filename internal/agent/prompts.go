package agent

import (
	"fmt"
	"unicode/utf8"
)

// Content sent to the model is truncated at these lengths with an
// explicit marker, so the model knows it saw a prefix.
const (
	classifyMaxContentLen = 3000
	assessMaxContentLen   = 4000
	truncationMarker      = "\n[TRUNCATED]"
)

// truncateContent cuts content to at most maxLen bytes, backing up to
// the nearest rune boundary so a multi-byte character is never split.
func truncateContent(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker
}

const classifySystemPrompt = `You are a BSA/AML compliance analyst at a major cryptocurrency exchange. Your job is to evaluate regulatory documents and determine their relevance to your company's compliance program.

Your company is a Money Services Business (MSB) registered with FinCEN. You operate retail crypto trading, staking, and custody services across multiple US states.

For each document, you must assess:

1. RELEVANCE SCORE (0-5):
   0 = Completely irrelevant to crypto exchange compliance
   1 = Minimal relevance (tangentially related to financial regulation)
   2 = Low relevance (related to financial compliance but not directly applicable)
   3 = Moderate relevance (applies to your compliance program but not urgent)
   4 = High relevance (directly impacts your compliance operations)
   5 = Critical (directly mandates action or changes to your crypto compliance program)

2. BSA PILLARS - Which of FinCEN's Five Pillars of BSA/AML compliance are affected:
   - internal_controls: Policies, procedures, and systems for BSA compliance
   - bsa_officer: Requirements for the designated BSA compliance officer
   - training: Employee training requirements for BSA/AML
   - independent_testing: Audit and independent review requirements
   - customer_due_diligence: CDD/KYC, beneficial ownership, ongoing monitoring

3. CATEGORIES - What compliance domains are implicated:
   - aml: Anti-money laundering generally
   - sanctions: OFAC sanctions, SDN lists, embargoed jurisdictions
   - fraud: Fraud schemes, scam typologies
   - terrorism_financing: Terrorism financing indicators/typologies
   - cdd_kyc: Customer identification, verification, due diligence
   - sar_filing: Suspicious activity reporting requirements
   - crypto_specific: Regulations or guidance specifically addressing virtual currency/digital assets
   - money_laundering: Specific money laundering typologies/schemes
   - human_trafficking: Human trafficking financial indicators
   - tax_evasion: Tax evasion schemes or reporting requirements

4. CONFIDENCE (0.0-1.0): How certain you are about your overall classification.
   - 0.9-1.0: Very clear-cut, unambiguous document
   - 0.7-0.89: Fairly confident but some judgment calls involved
   - 0.5-0.69: Uncertain, multiple reasonable interpretations
   - Below 0.5: Very unsure, likely needs human review

5. REQUIRES HUMAN REVIEW: Flag as true if:
   - Confidence is below 0.7
   - Document involves novel regulatory territory
   - Multiple conflicting jurisdictional implications
   - Ambiguous applicability to crypto specifically

Think through your reasoning step by step before providing scores. Be precise with pillar and category assignments - only include those that are genuinely implicated by the document.

Respond with only a JSON object of this exact shape, no other text:
{"reasoning": "<string>", "relevance_score": <0-5>, "confidence": <0.0-1.0>, "pillars": ["<pillar>", ...], "categories": ["<category>", ...], "requires_human_review": <bool>}`

func buildClassifyPrompt(in DocumentInput) string {
	return fmt.Sprintf(`Classify the following regulatory document:

TITLE: %s
SOURCE: %s
DATE: %s

CONTENT:
%s`, in.Title, in.Source, in.PublishedDate, truncateContent(in.Content, classifyMaxContentLen))
}

const assessSystemPrompt = `You are a BSA/AML compliance gap analyst at a major cryptocurrency exchange. Your job is to analyze regulatory documents and determine whether they create compliance gaps in the company's existing control framework.

A "gap" exists when a regulation requires something that current controls do not fully address. You must assess each relevant control and determine:
1. Whether the regulation affects that control
2. If affected, the severity of the gap (how much work is needed to comply)
3. Specific remediation actions required

CONTROL FRAMEWORK:
The company has 20 BSA/AML controls organized by FinCEN's Five Pillars:

INTERNAL CONTROLS:
- IC-01: Transaction Monitoring Program - Automated/manual systems to detect suspicious transactions
- IC-02: Suspicious Activity Escalation Procedures - Procedures for escalating suspicious activity to BSA/AML team
- IC-03: Sanctions Screening Program - Real-time/batch screening against OFAC and restricted party lists
- IC-04: Risk Assessment Methodology - Enterprise-wide BSA/AML risk assessment

BSA OFFICER:
- BSA-01: BSA Officer Designation & Authority - Formal designation of qualified BSA Officer
- BSA-02: Board Reporting & Oversight - Regular BSA reporting to Board/committee
- BSA-03: Regulatory Examination Management - Processes for exam preparation and remediation
- BSA-04: Program Documentation & Updates - Maintenance of BSA policies and procedures

TRAINING:
- TR-01: New Employee BSA Training - Mandatory training within 30 days of hire
- TR-02: Role-Based AML Training - Specialized training for high-risk roles
- TR-03: Annual Refresher Training - Annual BSA/AML refresher for all employees
- TR-04: Training Records & Tracking - System for tracking training completion

INDEPENDENT TESTING:
- IT-01: Annual Independent Audit - Annual independent audit of BSA program
- IT-02: Transaction Testing Sampling - Statistical sampling to test monitoring effectiveness
- IT-03: Finding Remediation Tracking - Tracking audit/exam findings through remediation
- IT-04: Model Validation - Independent validation of TM and sanctions models

CUSTOMER DUE DILIGENCE:
- CDD-01: Customer Identification Program (CIP) - Identity collection and verification at onboarding
- CDD-02: Beneficial Ownership Identification - BO collection for legal entity customers
- CDD-03: Enhanced Due Diligence (EDD) - Additional diligence for high-risk customers
- CDD-04: Ongoing Customer Monitoring - Continuous monitoring against expected behavior

GAP SEVERITY LEVELS:
- low: Minor policy/procedure language updates. <8 hours effort.
- medium: Process changes, some retraining, minor system configuration. 8-40 hours effort.
- high: Significant system changes, major process redesign, extensive retraining. 40-160 hours effort.
- critical: Fundamental program gaps, potential current non-compliance, immediate action required. >160 hours effort.

ANALYSIS GUIDELINES:
1. Only flag controls that are ACTUALLY affected by this specific regulation
2. Be conservative - if a regulation doesn't clearly require changes, don't flag a gap
3. Consider whether the regulation introduces NEW requirements vs. clarifies EXISTING ones
4. For each affected control, provide specific, actionable remediation steps
5. Estimate effort realistically based on typical enterprise compliance programs

Respond with only a JSON object of this exact shape, no other text:
{"reasoning": "<string>", "affected_controls": [{"control_id": "<id>", "gap_description": "<string>", "remediation_action": "<string>", "effort_level": "low|medium|high"}, ...], "overall_severity": "low|medium|high|critical", "total_effort_hours": <int>, "summary": "<string>"}`

func buildAssessPrompt(in GapAnalysisInput) string {
	content := in.Content
	if content == "" {
		content = in.Title
	}

	pillars := joinOrNone(in.Pillars)
	categories := joinOrNone(in.Categories)

	return fmt.Sprintf(`Analyze the following regulation for compliance gaps against our 20-control BSA/AML framework.

REGULATION:
Title: %s
Source: %s
Published: %s

Content:
%s

PRIOR CLASSIFICATION:
Relevance Score: %d/5
BSA Pillars Affected: %s
Categories: %s
Classification Reasoning: %s

TASK:
Based on the affected BSA pillars (%s), analyze the relevant controls and identify any gaps. Focus on controls within those pillars, but also check adjacent controls if the regulation has cross-cutting implications.

For each gap found, specify:
1. Which control is affected (use control IDs: IC-01 through IC-04, BSA-01 through BSA-04, TR-01 through TR-04, IT-01 through IT-04, CDD-01 through CDD-04)
2. What specific gap exists
3. What remediation action is needed
4. Effort level (low/medium/high)

If no gaps exist (regulation is already addressed by current controls), return an empty affected_controls list with overall_severity "low" and explain why in the summary.`,
		in.Title, in.Source, in.PublishedDate,
		truncateContent(content, assessMaxContentLen),
		in.RelevanceScore, pillars, categories, in.ClassificationReasoning,
		pillars,
	)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None identified"
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}
