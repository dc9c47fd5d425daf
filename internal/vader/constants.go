package vader

// Empirically derived increments from the published VADER study
const (
	boostIncr   = 0.293
	boostDecr   = -0.293
	capsIncr    = 0.733
	negScalar   = -0.74
	normAlpha   = 15.0
	exclIncr    = 0.292
	exclMax     = 4
	questIncr   = 0.18
	questMax    = 0.96
	questCutoff = 3
)

var negations = toSet(
	"aint", "arent", "cannot", "cant", "couldnt", "darent", "didnt", "doesnt",
	"ain't", "aren't", "can't", "couldn't", "daren't", "didn't", "doesn't",
	"dont", "hadnt", "hasnt", "havent", "isnt", "mightnt", "mustnt", "neither",
	"don't", "hadn't", "hasn't", "haven't", "isn't", "mightn't", "mustn't",
	"neednt", "needn't", "never", "none", "nope", "nor", "not", "nothing", "nowhere",
	"oughtnt", "shant", "shouldnt", "uhuh", "wasnt", "werent",
	"oughtn't", "shan't", "shouldn't", "uh-uh", "wasn't", "weren't",
	"without", "wont", "wouldnt", "won't", "wouldn't", "rarely", "seldom", "despite",
)

// boosters raise or lower the intensity of the sentiment word that follows
var boosters = map[string]float64{
	"absolutely": boostIncr, "amazingly": boostIncr, "awfully": boostIncr,
	"completely": boostIncr, "considerably": boostIncr, "decidedly": boostIncr,
	"deeply": boostIncr, "effing": boostIncr, "enormously": boostIncr,
	"entirely": boostIncr, "especially": boostIncr, "exceptionally": boostIncr,
	"extremely": boostIncr, "fabulously": boostIncr, "flipping": boostIncr,
	"flippin": boostIncr, "fricking": boostIncr, "frickin": boostIncr,
	"frigging": boostIncr, "friggin": boostIncr, "fully": boostIncr,
	"fucking": boostIncr, "greatly": boostIncr, "hella": boostIncr,
	"highly": boostIncr, "hugely": boostIncr, "incredibly": boostIncr,
	"intensely": boostIncr, "majorly": boostIncr, "more": boostIncr,
	"most": boostIncr, "particularly": boostIncr, "purely": boostIncr,
	"quite": boostIncr, "really": boostIncr, "remarkably": boostIncr,
	"so": boostIncr, "substantially": boostIncr, "thoroughly": boostIncr,
	"totally": boostIncr, "tremendously": boostIncr, "uber": boostIncr,
	"unbelievably": boostIncr, "unusually": boostIncr, "utterly": boostIncr,
	"very": boostIncr,

	"almost": boostDecr, "barely": boostDecr, "hardly": boostDecr,
	"just enough": boostDecr, "kind of": boostDecr, "kinda": boostDecr,
	"kindof": boostDecr, "kind-of": boostDecr, "less": boostDecr,
	"little": boostDecr, "marginally": boostDecr, "occasionally": boostDecr,
	"partly": boostDecr, "scarcely": boostDecr, "slightly": boostDecr,
	"somewhat": boostDecr, "sort of": boostDecr, "sorta": boostDecr,
	"sortof": boostDecr, "sort-of": boostDecr,
}

// idioms override the valence of the words they contain
var idioms = map[string]float64{
	"the shit":        3,
	"the bomb":        3,
	"bad ass":         1.5,
	"yeah right":      -2,
	"cut the mustard": 2,
	"kiss of death":   -1.5,
	"hand to mouth":   -2,
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
