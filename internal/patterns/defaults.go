package patterns

// #region defaults
// DefaultTable returns the built-in bilingual tables. Mildly risky terms
// (change clauses, third parties, twelve-month windows) sit in HIGH with
// weight 1; mutual wording sits in LOW with weight -1.
func DefaultTable() Table {
	return Table{High: defaultHigh(), Low: defaultLow()}
}

func en(text string, w int) Pattern { return Pattern{Text: text, Weight: w, Lang: "en"} }
func fr(text string, w int) Pattern { return Pattern{Text: text, Weight: w, Lang: "fr"} }

func defaultHigh() []Pattern {
	return []Pattern{
		// unlimited scope
		en("unlimited", 3),
		en("without limit", 3),
		en("without limitation", 2),
		en("any and all", 2),
		en("regardless of", 2),
		en("under any circumstances", 3),
		en("in no event", 2),

		// duration
		en("perpetuity", 3),
		en("in perpetuity", 3),
		en("forever", 2),
		en("permanent", 2),
		en("irrevocable", 2),
		en("irrevocably", 2),

		// one-sided
		en("sole discretion", 3),
		en("absolute discretion", 3),
		en("without cause", 2),
		en("at any time", 1),
		en("immediately", 1),
		en("without notice", 3),
		en("without prior notice", 3),

		// warranty disclaimers
		en("as is", 3),
		en("as-is", 3),
		en("without warranty", 3),
		en("no warranty", 3),
		en("disclaims all", 2),
		en("no representations", 2),

		// liability exclusions
		en("no liability", 3),
		en("not be liable", 2),
		en("expressly disclaim", 2),
		en("waives", 2),
		en("waive all", 3),
		en("forfeit", 2),

		// harsh terms
		en("non-refundable", 2),
		en("2% per month", 2),
		en("24 hours", 2),
		en("7 days", 1),

		// offshore jurisdictions
		en("cayman islands", 4),
		en("british virgin islands", 4),
		en("seychelles", 3),

		// broad scope
		en("worldwide", 2),
		en("anywhere in the world", 2),
		en("including but not limited to", 1),

		// fault exclusion
		en("regardless of fault", 3),
		en("regardless of negligence", 3),
		en("even if advised", 2),
		en("including negligence", 2),

		// data
		en("sell all data", 3),
		en("unrestricted rights", 3),
		en("marketing to third parties", 2),

		// non-compete length
		en("five years", 2),
		en("10 years", 3),
		en("ten years", 3),

		// mild
		en("12 months", 1),
		en("twelve months", 1),
		en("sub-processor", 1),
		en("third party", 1),
		en("may be updated", 1),
		en("from time to time", 1),
		en("at its option", 1),

		fr("illimité", 3),
		fr("sans limite", 3),
		fr("sans limitation", 2),
		fr("quelle que soit", 2),
		fr("en aucun cas", 2),
		fr("quelles que soient", 2),
		fr("quoi que ce soit", 2),

		fr("perpétuité", 3),
		fr("à perpétuité", 3),
		fr("irrévocable", 2),
		fr("irrévocablement", 2),

		fr("seule discrétion", 3),
		fr("discrétion absolue", 3),
		fr("sans motif", 2),
		fr("à tout moment", 1),
		fr("immédiatement", 1),
		fr("sans préavis", 3),
		fr("sans notification", 3),

		fr("en l'état", 3),
		fr("sans garantie", 3),
		fr("sans aucune garantie", 3),
		fr("décline toute", 2),
		fr("exclut toute", 2),

		fr("aucune responsabilité", 3),
		fr("ne sera pas responsable", 2),
		fr("ne saurait être responsable", 2),
		fr("renonce", 2),
		fr("renonciation", 2),

		fr("non remboursable", 2),
		fr("2% par mois", 2),
		fr("24 heures", 2),
		fr("7 jours", 1),

		fr("îles caïmans", 4),

		fr("quelle que soit la faute", 3),
		fr("indépendamment de la faute", 3),
		fr("même en cas de négligence", 2),

		fr("cinq ans", 2),
		fr("dix ans", 3),
		fr("partout dans le monde", 2),

		fr("12 mois", 1),
		fr("douze mois", 1),
	}
}

func defaultLow() []Pattern {
	return []Pattern{
		// balanced
		en("balanced", -2),
		en("proportional", -2),
		en("pro rata", -1),
		en("fair", -1),

		// caps
		en("capped at", -2),
		en("limited to", -1),
		en("shall not exceed", -1),
		en("up to the", -1),
		en("maximum of", -1),

		en("non-exclusive", -2),
		en("nonexclusive", -2),

		en("standard exclusions", -2),
		en("customary", -1),
		en("typical", -1),

		// carve-outs
		en("except for", -1),
		en("carve-out", -2),
		en("excluding", -1),

		// timeframes
		en("3 years", -1),
		en("three years", -1),
		en("2 years", -1),
		en("two years", -1),
		en("6 months", -1),
		en("six months", -1),

		// consent
		en("mutual consent", -2),
		en("written consent", -1),
		en("prior consent", -1),

		// compliance
		en("article 28", -1),
		en("iso 27001", -2),
		en("soc 2", -2),

		// disputes
		en("non-binding", -1),
		en("may pursue", -1),
		en("courts of competent jurisdiction", -1),

		// symmetry
		en("mutual", -1),
		en("each party", -1),

		fr("équilibré", -2),
		fr("proportionnel", -2),
		fr("au prorata", -1),
		fr("équitable", -1),

		fr("plafonné", -2),
		fr("limité à", -1),
		fr("plafonnée", -2),
		fr("ne dépassera pas", -1),
		fr("ne saurait excéder", -1),
		fr("maximum de", -1),
		fr("concurrence de", -1),

		fr("non exclusif", -2),
		fr("non exclusive", -2),

		fr("exclusions standard", -2),
		fr("usage habituel", -1),
		fr("pratique courante", -1),

		fr("3 ans", -2),
		fr("trois ans", -2),
		fr("2 ans", -1),
		fr("deux ans", -1),
		fr("6 mois", -1),
		fr("six mois", -1),

		fr("consentement mutuel", -2),
		fr("consentement écrit", -1),
		fr("consentement préalable", -1),
		fr("accord préalable", -1),

		fr("conforme", -1),
		fr("standard", -1),
		fr("usuel", -1),

		fr("mutuel", -1),
		fr("chaque partie", -1),
	}
}

// #endregion defaults
