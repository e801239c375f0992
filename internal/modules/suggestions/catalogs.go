package suggestions

// Fixed catalogs for synthesized recommendation orbs. The index
// arithmetic over these lists is part of the module's contract: given a
// fixed input tree, the same entries come out in the same order, so the
// renderer shows a stable recommendation set until the hierarchy changes.

// campaignConcepts names suggested campaigns, indexed by selection order
// mod 5.
var campaignConcepts = [5]string{
	"Lookalike Expansion",
	"Retargeting Boost",
	"UGC Creator Test",
	"Seasonal Momentum Push",
	"Broad Discovery Probe",
}

// personas names suggested ad sets, indexed by (selection order + 1) mod 5.
var personas = [5]string{
	"Young Professionals",
	"Busy Parents",
	"Deal Seekers",
	"Early Adopters",
	"Loyal Returners",
}

// awarenessStages qualifies the suggested ad set's targeting stage,
// indexed by (selection order + 2) mod 5.
var awarenessStages = [5]string{
	"cold audience",
	"warm audience",
	"hot audience",
	"retention",
	"win-back",
}

// creativeConcepts names suggested creatives, indexed by
// (selection order + 3) mod 6.
var creativeConcepts = [6]string{
	"Problem/Solution Hook",
	"Social Proof Stack",
	"Founder Story",
	"Before & After",
	"3-Second Pattern Break",
	"Objection Crusher",
}

// formatVariations tags the suggested creative's format, indexed by
// selection order mod 4.
var formatVariations = [4]string{
	"15s vertical video",
	"static image",
	"carousel",
	"story remix",
}

// approaches is the "best approach" catalog. The first five entries map
// to metric thresholds in precedence order; the random fallback draws
// uniformly from the whole catalog when no threshold matches.
var approaches = [5]string{
	"Angle",
	"Message",
	"Offer",
	"Delivery",
	"Conversion",
}
