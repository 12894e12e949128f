package dialect

import "github.com/jward/tisym/internal/syntax"

// Xas99 is the TMS9900 assembler dialect.
const Xas99 = "xas99"

func init() {
	Register(&Rules{
		Name:       Xas99,
		Extensions: []string{".a99", ".asm", ".s"},
		Grammar: &asmGrammar{
			noOperands: map[string]bool{
				"RT": true, "NOP": true, "RTWP": true, "IDLE": true, "RSET": true,
				"CKON": true, "CKOF": true, "LREX": true, "EVEN": true, "PAGE": true,
				"LIST": true, "UNL": true,
			},
		},
		Sites:      asmSites,
		Restricted: asmRestricted,
		Fragments: map[syntax.Kind]string{
			KindLabelDef: "%s\n",
			KindOpLabel:  " B @%s\n",
		},
		Positional: asmPositional,
	})
}
