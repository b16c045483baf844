package registry

import (
	"strings"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// CategoryFromLabel maps a free-text category label onto the normalized
// category. Unrecognized labels fall back to the suite default.
func CategoryFromLabel(label string, suite types.Suite) types.Category {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "typograph"):
		return types.CategoryTypographical
	case strings.HasPrefix(l, "formatting"), l == "places", strings.Contains(l, "space"):
		return types.CategoryFormatting
	case strings.HasPrefix(l, "mixed"):
		return types.CategoryMixedScript
	case l == "language":
		return types.CategoryLanguageHandling
	case strings.HasPrefix(l, "usability"):
		return types.CategoryUsability
	case l == "functional":
		return types.CategoryFunctionalPositive
	}
	switch suite {
	case types.SuiteUI:
		return types.CategoryUsability
	case types.SuiteNegative:
		return types.CategoryTypographical
	}
	return types.CategoryFunctionalPositive
}

func positive(id, name, input, expected, grammar string, length types.LengthClass) types.TestCase {
	return types.TestCase{
		ID:             id,
		Name:           name,
		Input:          input,
		ExpectedOutput: expected,
		Category:       types.CategoryFunctionalPositive,
		CategoryLabel:  "Functional",
		GrammarTag:     grammar,
		Length:         length,
		Suite:          types.SuitePositive,
	}
}

func negative(id, name, input, expected, label, grammar string, length types.LengthClass) types.TestCase {
	return types.TestCase{
		ID:             id,
		Name:           name,
		Input:          input,
		ExpectedOutput: expected,
		Category:       CategoryFromLabel(label, types.SuiteNegative),
		CategoryLabel:  label,
		GrammarTag:     grammar,
		Length:         length,
		Suite:          types.SuiteNegative,
	}
}

const (
	short  = types.LengthShort
	medium = types.LengthMedium
	long   = types.LengthLong
)

// builtinPositive is the positive oracle table. Expected strings are the
// observed behavior of the target UI and are kept byte for byte, including
// doubled spaces.
func builtinPositive() []types.TestCase {
	return []types.TestCase{
		positive("Pos_Fun_0001", "Convert a short informal greeting question", "oyaa hondhin innavadha?", "ඔයා හොන්දින්  ඉන්නවද?", "Simple sentence", short),
		positive("Pos_Fun_0002", "Convert a simple daily need statement", "mata vathura oonee.", "මට වතුර ඕනේ.", "Simple sentence", short),
		positive("Pos_Fun_0003", "Convert a simple future plan", "api heta yamu.", "අපි හෙට යමු.", "Simple sentence", short),
		positive("Pos_Fun_004", "Convert a compound sentence with mixed English words", "mama documents tika balalaa email ekak evannam.", "මම documents ටික බලලා email එකක් එවන්නම්.", "Compound sentence", medium),
		positive("Pos_Fun_005", "Convert a conditional sentence", "oyaa enavaanam api yamu.", "ඔයා එනවානම් අපි යමු.", "Compound sentence", medium),
		positive("Pos_Fun_006", "Convert a compound sentence with mixed English words", "mama office eken reports collect karala manager ge email ekata send karannam.", "මම office එකෙන් reports collect කරල manager ගෙ email එකට send කරන්නම්.", "Complex sentence", long),
		positive("Pos_Fun_007", "Convert plural question", "oyaalaa ennee naeeddha?", "ඔයාලා එන්නේ නෑද්ද?", "Interrogative (question)", short),
		positive("Pos_Fun_008", "Convert a polite request sentence", "karuNaakaralaa podi udhavvak karanna puLuvandha?", "කරුණාකරලා පොඩ්ඩක් උදව්වක් කරන්න පුලුවන්ද?", "Interrogative (question)", medium),
		positive("Pos_Fun_009", "Polite question request", "oyaata mata eeka kiyanna puluvandha", "ඔයාට මට ඒක කියන්න පුලුවන්ද", "Interrogative (question)", short),
		positive("Pos_Fun_010", "Convert a direct command", "poddak inna.", "පොඩ්ඩක් ඉන්න.", "Imperative (command)", short),
		positive("Pos_Fun_011", "Convert polite instruction", "karuNaakaralaa eeka balanna.", "කරුණාකරලා ඒක බලන්න.", "Imperative (command)", short),
		positive("Pos_Fun_012", "Convert a negative daily statement", "mata adha enna baee.", "මට අද එන්න බැහැ.", "Simple sentence", medium),
		positive("Pos_Fun_013", "Affirmative response", "ov hari", "ඔව් hari", "Simple sentence", short),
		positive("Pos_Fun_014", "Convert past tense sentence", "api iiyee cinema giyaa.", "අපි ඊයේ cinema ගියා.", "Past tense", short),
		positive("Pos_Fun_015", "Convert present tense activity", "mama dhaen kaeema kanavaa.", "මම දැන් කෑම කනවා.", "Present tense", short),
		positive("Pos_Fun_016", "Convert mixed app name", "WhatsApp msg ekak yavanna.", "මට එWhatsApp msg එකක් යවන්න.", "Simple sentence", short),
		positive("Pos_Fun_017", "Convert slang phrase", "ela machan vaedee hari.", "එළ මචං වැඩේ හරි.", "Simple sentence", short),
		positive("Pos_Fun_018", "Convert plural pronoun sentence with mixed English words", "Api report eka adha submit karanavaa.", "අපි report එක අද submit කරනවා", "Plural form", short),
		positive("Pos_Fun_019", "Convert third-person sentence", "eyaa office gihin inne.", "එයා office ගිහින් ඉන්නේ.", "Simple sentence", medium),
		positive("Pos_Fun_020", "Convert mixed English term", "mage phone eka charge karanna oonee.", "මට phone එක charge කරන්න  ඕනේ.", "Simple sentence", short),
		positive("Pos_Fun_021", "Convert sentence with place name", "api Colombo yanna hadhannee.", "අපි Colombo යන්න හදන්නේ.", "Present tense", short),
		positive("Pos_Fun_022", "Convert repeated word emphasis", "lassanai lassanai.", "ලස්සනයි ලස්සනයි.", "Simple sentence", short),
		positive("Pos_Fun_023", "Currency amount", "mata Rs. 1500 vitharai thiyennee.", "මට Rs. 1500 විතරයි තියෙන්නේ.", "Simple sentence", medium),
		positive("Pos_Fun_024", "Convert time expression", "mclass eka 8.30 AM ta patan gannavaa.", "class එක 8.30 AMට පටන් ගන්නවා.", "Compound sentence", medium),
	}
}

// builtinNegative holds inputs the UI is expected to mishandle.
func builtinNegative() []types.TestCase {
	return []types.TestCase{
		negative("Neg_Fun_001", "Incorrect handling of joined words", "mamagedarayanavaa", "මම ගෙදර යනවා", "Typographical error handling", "Simple sentence", short),
		negative("Neg_Fun_002", "Handling spelling errors in Singlish", "mmaa geddhara yannavaa", "මම ගෙදර යනවා", "Typographical error handling", "Future tense", short),
		negative("Neg_Fun_003", "Slang-heavy informal sentence", "ela machan api gedhara yamu", "ඇයි මචන් අපි ගෙදර යමු", "Typographical error handling", "Simple sentence", short),
		negative("Neg_Fun_004", "Line break in sentence", "මම office යනවාඅද meeting එකක් තියෙනවා", "මම office යනවා\nඅද meeting එකක් තියෙනවා", "Formatting (spaces / line breaks / paragraph)", "Simple sentence", short),
		negative("Neg_Fun_005", "Unsupported English abbreviation", "mama heta enavaa ASAP", "මම හෙට එනවා ASAP", "language", "Simple sentence", short),
		negative("Neg_Fun_006", "Repeated word emphasis handling", "hari hari hari lassanai", "හරි හරි හරි ලස්සනයි", "Typographical error handling", "Simple sentence", short),
		negative("Neg_Fun_007", "Currency format handling", "mata Rs. 5000 onee", "මට Rs. 5000 ඕනේ", "Mixed Singlish + English", "Presenttense", short),
		negative("Neg_Fun_008", "Multiple Space Handling", "mama    gedhara   yanavaa", "මම ගෙදර යනවා", " places ", "Simple sentence", short),
		negative("Neg_Fun_009", "Repeated Character Handling", "suba aluth awruddkk", "සුබ අලුත් අවුරුද්ද", "Typographic error handling", "Interrogative (question)", short),
		negative("Neg_Fun_010", "Invalid characters", "mama ??? Karanavaa", "මම ??? කරනවා", "language", "Imperative (command)", short),
	}
}

// builtinUI holds the progressive rendering scenario. Its partial input is
// already Sinhala and is not a literal prefix of the input; the second
// typing stage is cut by character count.
func builtinUI() []types.IncrementalTestCase {
	return []types.IncrementalTestCase{
		{
			TestCase: types.TestCase{
				ID:             "Pos_UI_001",
				Name:           "Responsive UI on mobile",
				Input:          "mama gedhara yanna hadhanavaa, obata maava hambavenna puLuvandha?",
				ExpectedOutput: "මම ගෙදර යන්න හදනවා, ඔබට මාව හම්බවෙන්න පුළුවන්ද?",
				Category:       types.CategoryUsability,
				CategoryLabel:  "Usability flow",
				GrammarTag:     "Present tense",
				Length:         medium,
				Suite:          types.SuiteUI,
			},
			PartialInput:       "මම ගෙදර යන්න හදනවා, ඔබට මාව හම්බවෙන්න පුළුවන්ද?",
			ExpectedFullOutput: "මම ගෙදර යන්න හදනවා, ඔබට මාව හම්බවෙන්න පුළුවන්ද?",
		},
	}
}
