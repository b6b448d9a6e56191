package auth

import (
	"fmt"
	"io"
	"strings"
)

// TokenURL is where a signed-in iNaturalist user can copy an API token
const TokenURL = "https://www.inaturalist.org/users/api_token"

// ShowTokenGuide explains how to obtain an API token
func ShowTokenGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "iNaturalist API token")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Public observations can be fetched without a token. A token only")
	fmt.Fprintln(w, "identifies your requests to iNaturalist.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Sign in at https://www.inaturalist.org")
	fmt.Fprintf(w, "  2. Open %s\n", TokenURL)
	fmt.Fprintln(w, "  3. Copy the value of \"api_token\" (a long JWT string)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tokens expire after about 24 hours; run `inatscraper auth login` again")
	fmt.Fprintf(w, "when that happens, or export %s for one-off runs.\n", EnvAPIToken)
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

// ShowQuickTokenGuide is the one-line version
func ShowQuickTokenGuide(w io.Writer) {
	fmt.Fprintf(w, "\nCopy \"api_token\" from %s (type 'help' for details)\n", TokenURL)
}
