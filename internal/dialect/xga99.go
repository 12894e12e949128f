package dialect

import "github.com/jward/tisym/internal/syntax"

// Xga99 is the GPL assembler dialect.
const Xga99 = "xga99"

func init() {
	Register(&Rules{
		Name:       Xga99,
		Extensions: []string{".g99", ".gpl"},
		Grammar: &asmGrammar{
			noOperands: map[string]bool{
				"RTN": true, "RTNC": true, "RTGR": true, "RTNB": true, "EXIT": true,
				"PAGE": true, "LIST": true, "UNL": true,
			},
			prefixes: true,
		},
		Sites:      asmSites,
		Restricted: asmRestricted,
		Fragments: map[syntax.Kind]string{
			KindLabelDef: "%s\n",
			KindOpLabel:  " B %s\n",
		},
		Positional: asmPositional,
	})
}
