package tx

import "fmt"

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by category:
//
//	tes  success
//	tec  instruction failed while applying; fee claimed, effects discarded
//	tef  transaction rejected before applying (bad signatures, internal faults)
//	tem  malformed transaction or instruction payload
//	ter  retry later (fee payer missing or unfunded)
const (
	TesSUCCESS Result = 0

	// tec (100-199)
	TecNO_PERMISSION       Result = 100
	TecNO_ENTRY            Result = 101
	TecWRONG_OWNER         Result = 102
	TecINVALID_ACCOUNT     Result = 103
	TecALREADY_INITIALIZED Result = 104
	TecACCOUNT_SIZE        Result = 105
	TecINSUFFICIENT_FUNDS  Result = 106
	TecINSUFFICIENT_RENT   Result = 107
	TecINVALID_STATE       Result = 108
	TecINVALID_CONFIG      Result = 109
	TecOVERSIZE            Result = 110
	TecDIGEST_MISMATCH     Result = 111
	TecSTALE_CONFIG        Result = 112
	TecSTALE_REPORT        Result = 113
	TecBAD_SIGNER          Result = 114
	TecSIGNATURE_THRESHOLD Result = 115
	TecANSWER_OUT_OF_RANGE Result = 116
	TecNO_ROUND_DATA       Result = 117
	TecWRITER_SET          Result = 118
	TecMINT_MISMATCH       Result = 119
	TecLIST_FULL           Result = 120
	TecUNKNOWN_SCOPE       Result = 121
	TecMATH_OVERFLOW       Result = 122
	TecINTERNAL            Result = 199

	// tef (-199 to -100)
	TefFAILURE       Result = -199
	TefBAD_SIGNATURE Result = -198
	TefNO_FEE_PAYER  Result = -197
	TefINTERNAL      Result = -196
	TefPAST_NONCE    Result = -195

	// tem (-299 to -200)
	TemMALFORMED             Result = -299
	TemUNKNOWN_INSTRUCTION   Result = -298
	TemNO_INSTRUCTIONS       Result = -297
	TemTOO_MANY_INSTRUCTIONS Result = -296
	TemBAD_AMOUNT            Result = -295
	TemBAD_ORACLE_COUNT      Result = -294
	TemBAD_THRESHOLD         Result = -293
	TemDUPLICATE_ORACLE      Result = -292
	TemOVERSIZE              Result = -291
	TemBAD_REPORT            Result = -290
	TemBAD_ACCOUNT_SIZE      Result = -289

	// ter (-99 to -1)
	TerNO_ACCOUNT Result = -99
	TerINSUF_FEE  Result = -98
)

var resultNames = map[Result]string{
	TesSUCCESS:               "tesSUCCESS",
	TecNO_PERMISSION:         "tecNO_PERMISSION",
	TecNO_ENTRY:              "tecNO_ENTRY",
	TecWRONG_OWNER:           "tecWRONG_OWNER",
	TecINVALID_ACCOUNT:       "tecINVALID_ACCOUNT",
	TecALREADY_INITIALIZED:   "tecALREADY_INITIALIZED",
	TecACCOUNT_SIZE:          "tecACCOUNT_SIZE",
	TecINSUFFICIENT_FUNDS:    "tecINSUFFICIENT_FUNDS",
	TecINSUFFICIENT_RENT:     "tecINSUFFICIENT_RENT",
	TecINVALID_STATE:         "tecINVALID_STATE",
	TecINVALID_CONFIG:        "tecINVALID_CONFIG",
	TecOVERSIZE:              "tecOVERSIZE",
	TecDIGEST_MISMATCH:       "tecDIGEST_MISMATCH",
	TecSTALE_CONFIG:          "tecSTALE_CONFIG",
	TecSTALE_REPORT:          "tecSTALE_REPORT",
	TecBAD_SIGNER:            "tecBAD_SIGNER",
	TecSIGNATURE_THRESHOLD:   "tecSIGNATURE_THRESHOLD",
	TecANSWER_OUT_OF_RANGE:   "tecANSWER_OUT_OF_RANGE",
	TecNO_ROUND_DATA:         "tecNO_ROUND_DATA",
	TecWRITER_SET:            "tecWRITER_SET",
	TecMINT_MISMATCH:         "tecMINT_MISMATCH",
	TecLIST_FULL:             "tecLIST_FULL",
	TecUNKNOWN_SCOPE:         "tecUNKNOWN_SCOPE",
	TecMATH_OVERFLOW:         "tecMATH_OVERFLOW",
	TecINTERNAL:              "tecINTERNAL",
	TefFAILURE:               "tefFAILURE",
	TefBAD_SIGNATURE:         "tefBAD_SIGNATURE",
	TefNO_FEE_PAYER:          "tefNO_FEE_PAYER",
	TefINTERNAL:              "tefINTERNAL",
	TefPAST_NONCE:            "tefPAST_NONCE",
	TemMALFORMED:             "temMALFORMED",
	TemUNKNOWN_INSTRUCTION:   "temUNKNOWN_INSTRUCTION",
	TemNO_INSTRUCTIONS:       "temNO_INSTRUCTIONS",
	TemTOO_MANY_INSTRUCTIONS: "temTOO_MANY_INSTRUCTIONS",
	TemBAD_AMOUNT:            "temBAD_AMOUNT",
	TemBAD_ORACLE_COUNT:      "temBAD_ORACLE_COUNT",
	TemBAD_THRESHOLD:         "temBAD_THRESHOLD",
	TemDUPLICATE_ORACLE:      "temDUPLICATE_ORACLE",
	TemOVERSIZE:              "temOVERSIZE",
	TemBAD_REPORT:            "temBAD_REPORT",
	TemBAD_ACCOUNT_SIZE:      "temBAD_ACCOUNT_SIZE",
	TerNO_ACCOUNT:            "terNO_ACCOUNT",
	TerINSUF_FEE:             "terINSUF_FEE",
}

var resultMessages = map[Result]string{
	TesSUCCESS:             "The transaction was applied.",
	TecNO_PERMISSION:       "No permission to perform requested operation.",
	TecNO_ENTRY:            "No matching entry found.",
	TecWRONG_OWNER:         "Account is not owned by the expected program.",
	TecINVALID_ACCOUNT:     "Account data does not have the expected type.",
	TecALREADY_INITIALIZED: "Account is already initialized.",
	TecACCOUNT_SIZE:        "Account size does not match the required layout.",
	TecINSUFFICIENT_FUNDS:  "Insufficient balance to complete the operation.",
	TecINSUFFICIENT_RENT:   "Account deposit is below the rent-exempt minimum.",
	TecINVALID_STATE:       "Entry is not in a state that allows this operation.",
	TecINVALID_CONFIG:      "Configuration is incomplete or inconsistent.",
	TecOVERSIZE:            "Data exceeds the maximum allowed size.",
	TecDIGEST_MISMATCH:     "Configuration digest does not match the proposal.",
	TecSTALE_CONFIG:        "Report was produced under a different configuration.",
	TecSTALE_REPORT:        "Report epoch and round are not newer than the last accepted report.",
	TecBAD_SIGNER:          "Report signature is from an unknown, duplicate or out-of-order signer.",
	TecSIGNATURE_THRESHOLD: "Report does not carry enough valid signatures.",
	TecANSWER_OUT_OF_RANGE: "Median answer is outside the configured bounds.",
	TecNO_ROUND_DATA:       "No data retained for the requested round.",
	TecWRITER_SET:          "Feed still has a writer.",
	TecMINT_MISMATCH:       "Token mint does not match the aggregator's mint.",
	TecLIST_FULL:           "Access list is full.",
	TecUNKNOWN_SCOPE:       "Unknown query scope.",
	TecMATH_OVERFLOW:       "Arithmetic overflow.",
	TecINTERNAL:            "An internal error occurred while applying.",
	TefBAD_SIGNATURE:       "Transaction signature is invalid.",
	TefNO_FEE_PAYER:        "Fee payer did not sign the transaction.",
	TefPAST_NONCE:          "Nonce is not above the fee payer's last nonce.",
	TemMALFORMED:           "Malformed transaction.",
	TemUNKNOWN_INSTRUCTION: "Unknown program instruction.",
	TemNO_INSTRUCTIONS:     "Transaction has no instructions.",
	TerNO_ACCOUNT:          "Fee payer account does not exist.",
	TerINSUF_FEE:           "Fee payer cannot cover the transaction fee.",
}

// String returns the string representation of the result code
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	if msg, ok := resultMessages[r]; ok {
		return msg
	}
	return r.String()
}

// IsSuccess returns true if the result is tesSUCCESS
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (claimed cost) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true if this is a ter (retry) code
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// ClaimsFee returns true if the fee payer is charged for this outcome.
func (r Result) ClaimsFee() bool {
	return r.IsSuccess() || r.IsTec()
}
