package normalize

import "strings"

// security pairs a ticker with its issuer display name.
type security struct {
	Ticker string
	Name   string
}

// cusipTable is a static lookup of the large-cap CUSIPs that dominate 13F
// filings. Holdings with unmapped CUSIPs keep an empty ticker and fall back to
// the issuer name for display.
var cusipTable = map[string]security{
	"037833100": {"AAPL", "Apple Inc"},
	"594918104": {"MSFT", "Microsoft Corp"},
	"023135106": {"AMZN", "Amazon.com Inc"},
	"02079K305": {"GOOGL", "Alphabet Inc Class A"},
	"02079K107": {"GOOG", "Alphabet Inc Class C"},
	"30303M102": {"META", "Meta Platforms Inc"},
	"88160R101": {"TSLA", "Tesla Inc"},
	"67066G104": {"NVDA", "NVIDIA Corp"},
	"084670702": {"BRK.B", "Berkshire Hathaway Inc Class B"},
	"46625H100": {"JPM", "JPMorgan Chase & Co"},
	"478160104": {"JNJ", "Johnson & Johnson"},
	"92826C839": {"V", "Visa Inc"},
	"57636Q104": {"MA", "Mastercard Inc"},
	"742718109": {"PG", "Procter & Gamble Co"},
	"91324P102": {"UNH", "UnitedHealth Group Inc"},
	"437076102": {"HD", "Home Depot Inc"},
	"254687106": {"DIS", "Walt Disney Co"},
	"060505104": {"BAC", "Bank of America Corp"},
	"30231G102": {"XOM", "Exxon Mobil Corp"},
	"717081103": {"PFE", "Pfizer Inc"},
	"191216100": {"KO", "Coca-Cola Co"},
	"713448108": {"PEP", "PepsiCo Inc"},
	"17275R102": {"CSCO", "Cisco Systems Inc"},
	"92343V104": {"VZ", "Verizon Communications Inc"},
	"00206R102": {"T", "AT&T Inc"},
	"458140100": {"INTC", "Intel Corp"},
	"931142103": {"WMT", "Walmart Inc"},
	"166764100": {"CVX", "Chevron Corp"},
	"58933Y105": {"MRK", "Merck & Co Inc"},
	"002824100": {"ABT", "Abbott Laboratories"},
	"68389X105": {"ORCL", "Oracle Corp"},
	"79466L302": {"CRM", "Salesforce Inc"},
	"64110L106": {"NFLX", "Netflix Inc"},
	"00724F101": {"ADBE", "Adobe Inc"},
	"654106103": {"NKE", "Nike Inc"},
	"580135101": {"MCD", "McDonald's Corp"},
	"459200101": {"IBM", "International Business Machines Corp"},
	"747525103": {"QCOM", "Qualcomm Inc"},
	"882508104": {"TXN", "Texas Instruments Inc"},
	"007903107": {"AMD", "Advanced Micro Devices Inc"},
	"03027X100": {"AMT", "American Tower Corp"},
	"026874784": {"AIG", "American International Group Inc"},
	"031162100": {"AMGN", "Amgen Inc"},
	"053015103": {"ADP", "Automatic Data Processing Inc"},
	"097023105": {"BA", "Boeing Co"},
	"110122108": {"BMY", "Bristol-Myers Squibb Co"},
	"11135F101": {"AVGO", "Broadcom Inc"},
	"149123101": {"CAT", "Caterpillar Inc"},
	"172967424": {"C", "Citigroup Inc"},
	"20030N101": {"CMCSA", "Comcast Corp"},
	"22160K105": {"COST", "Costco Wholesale Corp"},
	"126650100": {"CVS", "CVS Health Corp"},
	"244199105": {"DE", "Deere & Co"},
	"247361702": {"DAL", "Delta Air Lines Inc"},
	"278642103": {"EBAY", "eBay Inc"},
	"285512109": {"LLY", "Eli Lilly & Co"},
	"29444U700": {"EQIX", "Equinix Inc"},
	"302130109": {"EXPE", "Expedia Group Inc"},
	"31428X106": {"FDX", "FedEx Corp"},
	"316773100": {"FITB", "Fifth Third Bancorp"},
	"345370860": {"F", "Ford Motor Co"},
	"369604301": {"GE", "General Electric Co"},
	"37045V100": {"GM", "General Motors Co"},
	"375558103": {"GILD", "Gilead Sciences Inc"},
	"38141G104": {"GS", "Goldman Sachs Group Inc"},
	"406216101": {"HAL", "Halliburton Co"},
	"427866108": {"HSY", "Hershey Co"},
	"438516106": {"HON", "Honeywell International Inc"},
	"444859102": {"HUM", "Humana Inc"},
	"453908102": {"INCY", "Incyte Corp"},
	"478366107": {"JCI", "Johnson Controls International"},
	"48203R104": {"JNPR", "Juniper Networks Inc"},
	"494368103": {"KMB", "Kimberly-Clark Corp"},
	"500754106": {"KHC", "Kraft Heinz Co"},
	"512807108": {"LRCX", "Lam Research Corp"},
	"539830109": {"LMT", "Lockheed Martin Corp"},
	"548661107": {"LOW", "Lowe's Companies Inc"},
	"55024U109": {"LULU", "Lululemon Athletica Inc"},
	"571903202": {"MRO", "Marathon Oil Corp"},
	"573284106": {"MLM", "Martin Marietta Materials Inc"},
	"585055106": {"MDT", "Medtronic PLC"},
	"59156R108": {"MET", "MetLife Inc"},
	"595112103": {"MU", "Micron Technology Inc"},
	"60505104":  {"MS", "Morgan Stanley"},
	"617446448": {"MSI", "Motorola Solutions Inc"},
	"629377508": {"NTAP", "NetApp Inc"},
	"65339F101": {"NEE", "NextEra Energy Inc"},
	"681919106": {"OKTA", "Okta Inc"},
	"690742101": {"OXY", "Occidental Petroleum Corp"},
	"693475105": {"PNC", "PNC Financial Services Group"},
	"70450Y103": {"PYPL", "PayPal Holdings Inc"},
	"723484101": {"PINS", "Pinterest Inc"},
	"74144T108": {"PLD", "Prologis Inc"},
	"767292105": {"RIO", "Rio Tinto PLC"},
	"770323103": {"RBLX", "Roblox Corp"},
	"78409V104": {"SCHW", "Charles Schwab Corp"},
	"79546E104": {"SBUX", "Starbucks Corp"},
	"816851109": {"NOW", "ServiceNow Inc"},
	"824348106": {"SHOP", "Shopify Inc"},
	"852234103": {"SQ", "Block Inc"},
	"855244109": {"SPOT", "Spotify Technology SA"},
	"867914103": {"SNOW", "Snowflake Inc"},
	"87612E106": {"TGT", "Target Corp"},
	"878742204": {"TECK", "Teck Resources Ltd"},
	"883556102": {"TMO", "Thermo Fisher Scientific Inc"},
	"891160509": {"TD", "Toronto-Dominion Bank"},
	"902973304": {"USB", "US Bancorp"},
	"907818108": {"UNP", "Union Pacific Corp"},
	"911312106": {"UPS", "United Parcel Service Inc"},
	"92552V100": {"VRTX", "Vertex Pharmaceuticals Inc"},
	"949746101": {"WFC", "Wells Fargo & Co"},
	"98138H101": {"WDAY", "Workday Inc"},
	"98980L101": {"ZM", "Zoom Video Communications Inc"},
}

// CUSIPToTicker maps a 9-character CUSIP to its ticker. The boolean reports
// whether the CUSIP is known.
func CUSIPToTicker(cusip string) (string, bool) {
	sec, ok := cusipTable[strings.ToUpper(strings.TrimSpace(cusip))]
	if !ok {
		return "", false
	}
	return sec.Ticker, true
}

// TickerNames returns a ticker -> issuer name map seeded from the CUSIP table.
// The registry extends it with names observed in artifacts.
func TickerNames() map[string]string {
	names := make(map[string]string, len(cusipTable))
	for _, sec := range cusipTable {
		names[sec.Ticker] = sec.Name
	}
	return names
}
