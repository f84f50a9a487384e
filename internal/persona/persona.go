// Package persona defines the closed set of AI coaching helpers that staff
// the founder journey. Each helper owns one stage of the journey and carries
// its own identity block, scope boundary, and guidance budget. The set is a
// tagged enum rather than string-keyed maps so an unknown helper is a parse
// error at the boundary, not a silent fallthrough deep in prompt assembly.
package persona

import "fmt"

// Helper identifies one of the six coaching personas.
type Helper int

const (
	// Muse guides ideation and problem validation.
	Muse Helper = iota
	// Atlas guides system architecture and tech stack choices.
	Atlas
	// Iris guides product design and UX.
	Iris
	// Forge guides the build phase (implementation).
	Forge
	// Herald guides the launch phase.
	Herald
	// Summit guides post-launch growth.
	Summit
)

// All returns every helper in journey order.
func All() []Helper {
	return []Helper{Muse, Atlas, Iris, Forge, Herald, Summit}
}

// String returns the stable lowercase identifier used in storage and APIs.
func (h Helper) String() string {
	switch h {
	case Muse:
		return "muse"
	case Atlas:
		return "atlas"
	case Iris:
		return "iris"
	case Forge:
		return "forge"
	case Herald:
		return "herald"
	case Summit:
		return "summit"
	}
	return "unknown"
}

// Parse converts a stored identifier back to a Helper.
func Parse(s string) (Helper, error) {
	switch s {
	case "muse":
		return Muse, nil
	case "atlas":
		return Atlas, nil
	case "iris":
		return Iris, nil
	case "forge":
		return Forge, nil
	case "herald":
		return Herald, nil
	case "summit":
		return Summit, nil
	}
	return 0, fmt.Errorf("unknown helper %q", s)
}

// Stage returns the journey stage this helper owns.
func (h Helper) Stage() string {
	switch h {
	case Muse:
		return "ideation"
	case Atlas:
		return "architecture"
	case Iris:
		return "design"
	case Forge:
		return "build"
	case Herald:
		return "launch"
	case Summit:
		return "growth"
	}
	return "unknown"
}

// DisplayName returns the helper's presented name.
func (h Helper) DisplayName() string {
	switch h {
	case Muse:
		return "Muse"
	case Atlas:
		return "Atlas"
	case Iris:
		return "Iris"
	case Forge:
		return "Forge"
	case Herald:
		return "Herald"
	case Summit:
		return "Summit"
	}
	return "Helper"
}

// Identity returns the persona identity block prepended to every set of
// rendered instructions. Each block names the helper, its role, and its
// scope boundary so the model stays inside its stage.
func (h Helper) Identity() string {
	switch h {
	case Muse:
		return `You are Muse, the ideation coach. You help a solo founder sharpen a raw idea into a validated problem statement: who hurts, how badly, and why existing options fail them. You push for evidence over enthusiasm and you are comfortable killing weak ideas early. You do NOT design screens, pick tech stacks, or plan launches — when the conversation drifts there, note the insight and hand it off to the right stage.`
	case Atlas:
		return `You are Atlas, the architecture coach. You help a solo founder pick a tech stack and shape a system that one person can actually build and operate. You favor boring, proven technology and ruthlessly cut scope that does not serve the MVP. You do NOT brainstorm new product ideas or write marketing copy — stay on architecture, data, and infrastructure.`
	case Iris:
		return `You are Iris, the design coach. You help a solo founder turn a validated problem and a chosen architecture into a product people can use: flows, screens, and the smallest design system that looks credible. You care about clarity over polish. You do NOT revisit whether the idea is worth building or how it will be hosted — those decisions arrive from earlier stages.`
	case Forge:
		return `You are Forge, the build coach. You help a solo founder ship the MVP: concrete implementation guidance, code-level tradeoffs, and unblocking. You bias hard toward working software over perfect software and you keep the founder off side quests. You do NOT redesign the product or re-litigate the stack — build what was decided.`
	case Herald:
		return `You are Herald, the launch coach. You help a solo founder get the MVP in front of real users: positioning, launch channels, first outreach, and what to measure in week one. You keep launches small and repeatable. You do NOT write application code or redesign the product — launch what exists.`
	case Summit:
		return `You are Summit, the growth coach. You help a solo founder turn early users into durable traction: retention, pricing, and the one or two channels worth compounding. You insist on measuring before scaling. You do NOT revisit the MVP's scope or architecture — grow what is live.`
	}
	return ""
}

// RelevantPeers returns the helpers whose extracted insights are worth
// showing to h. This is a semantic allow-list applied after budget
// selection: a stage mostly cares about the stages that feed it.
func (h Helper) RelevantPeers() []Helper {
	switch h {
	case Muse:
		return []Helper{Summit}
	case Atlas:
		return []Helper{Muse, Forge}
	case Iris:
		return []Helper{Muse, Atlas}
	case Forge:
		return []Helper{Atlas, Iris}
	case Herald:
		return []Helper{Muse, Iris, Forge}
	case Summit:
		return []Helper{Muse, Herald}
	}
	return nil
}

// IsRelevantPeer reports whether other's insights pass h's semantic filter.
func (h Helper) IsRelevantPeer(other Helper) bool {
	for _, p := range h.RelevantPeers() {
		if p == other {
			return true
		}
	}
	return false
}

// GuidanceLimits bounds how much static task guidance a helper's prompt may
// carry. Code-heavy stages get a larger allowance than brainstorming stages.
type GuidanceLimits struct {
	MaxTasks  int
	MaxTokens int
}

// Guidance returns the per-helper guidance limits.
func (h Helper) Guidance() GuidanceLimits {
	switch h {
	case Forge:
		return GuidanceLimits{MaxTasks: 3, MaxTokens: 1200}
	case Atlas:
		return GuidanceLimits{MaxTasks: 3, MaxTokens: 900}
	case Iris, Herald:
		return GuidanceLimits{MaxTasks: 2, MaxTokens: 600}
	default: // Muse, Summit
		return GuidanceLimits{MaxTasks: 2, MaxTokens: 400}
	}
}
