package metadata

// Table and column names below are the LedgerOne schema. The registry is the
// single source of truth for them: the store, engine, resolver and search
// layers never hard-code a table name.

const (
	TypeEntities           = "entities"
	TypeContacts           = "contacts"
	TypeEmails             = "emails"
	TypePhones             = "phones"
	TypeWebsites           = "websites"
	TypeBankAccounts       = "bank_accounts"
	TypeCryptoAccounts     = "crypto_accounts"
	TypeInvestmentAccounts = "investment_accounts"
	TypeCreditCards        = "credit_cards"
	TypeHostingAccounts    = "hosting_accounts"
)

// entityFK is the direct foreign key every detail table carries for the
// parent/child navigation pattern, distinct from the polymorphic join.
const entityFK = "entity_id"

// DefaultRegistry builds the LedgerOne record-type catalog.
func DefaultRegistry() *Registry {
	detailTypes := []string{
		TypeContacts, TypeEmails, TypePhones, TypeWebsites,
		TypeBankAccounts, TypeCryptoAccounts, TypeInvestmentAccounts,
		TypeCreditCards, TypeHostingAccounts,
	}

	children := make([]ChildLink, 0, len(detailTypes))
	for _, t := range detailTypes {
		children = append(children, ChildLink{Type: t, ForeignKey: entityFK})
	}

	toEntity := &ParentLink{Type: TypeEntities, ForeignKey: entityFK}

	types := []*RecordType{
		{
			Name:          TypeEntities,
			Table:         TypeEntities,
			Fields:        []string{"name", "type", "description", "short_description"},
			DisplayFields: []string{"name"},
			SearchFields:  []string{"name", "type", "description", "short_description"},
			Required:      []string{"name"},
			Children:      children,
		},
		{
			Name:          TypeContacts,
			Table:         TypeContacts,
			Fields:        []string{"name", "title", "description", "short_description", entityFK},
			DisplayFields: []string{"name"},
			SearchFields:  []string{"name", "title", "description", "short_description"},
			Required:      []string{"name"},
			Parent:        toEntity,
		},
		{
			Name:          TypeEmails,
			Table:         TypeEmails,
			Fields:        []string{"email", "label", "description", "short_description", entityFK},
			DisplayFields: []string{"email"},
			SearchFields:  []string{"email", "label", "description"},
			Required:      []string{"email"},
			Parent:        toEntity,
			Rules: []ValidationRule{
				{Field: "email", Expr: `record.email contains "@"`, Message: "email must be a valid address"},
			},
		},
		{
			Name:          TypePhones,
			Table:         TypePhones,
			Fields:        []string{"phone", "label", "description", "short_description", entityFK},
			DisplayFields: []string{"phone"},
			SearchFields:  []string{"phone", "label", "description"},
			Required:      []string{"phone"},
			Parent:        toEntity,
		},
		{
			Name:          TypeWebsites,
			Table:         TypeWebsites,
			Fields:        []string{"url", "name", "description", "short_description", entityFK},
			DisplayFields: []string{"name", "url"},
			SearchFields:  []string{"url", "name", "description"},
			Required:      []string{"url"},
			Parent:        toEntity,
		},
		{
			Name:          TypeBankAccounts,
			Table:         TypeBankAccounts,
			Fields:        []string{"account_name", "bank_name", "account_number", "routing_number", "description", "short_description", entityFK},
			DisplayFields: []string{"account_name", "bank_name"},
			SearchFields:  []string{"account_name", "bank_name", "description"},
			Required:      []string{"account_name"},
			Parent:        toEntity,
		},
		{
			Name:          TypeCryptoAccounts,
			Table:         TypeCryptoAccounts,
			Fields:        []string{"account_name", "platform", "wallet_address", "description", "short_description", entityFK},
			DisplayFields: []string{"account_name", "platform"},
			SearchFields:  []string{"account_name", "platform", "wallet_address", "description"},
			Required:      []string{"account_name"},
			Parent:        toEntity,
		},
		{
			Name:          TypeInvestmentAccounts,
			Table:         TypeInvestmentAccounts,
			Fields:        []string{"account_name", "provider", "account_number", "description", "short_description", entityFK},
			DisplayFields: []string{"account_name", "provider"},
			SearchFields:  []string{"account_name", "provider", "description"},
			Required:      []string{"account_name"},
			Parent:        toEntity,
		},
		{
			Name:          TypeCreditCards,
			Table:         TypeCreditCards,
			Fields:        []string{"card_name", "cardholder_name", "issuer", "last_four", "description", "short_description", entityFK},
			DisplayFields: []string{"card_name", "cardholder_name"},
			SearchFields:  []string{"card_name", "cardholder_name", "issuer", "description"},
			Required:      []string{"card_name"},
			Parent:        toEntity,
			Rules: []ValidationRule{
				{Field: "last_four", Expr: `record.last_four == nil || len(record.last_four) == 4`, Message: "last_four must be exactly 4 digits"},
			},
		},
		{
			Name:          TypeHostingAccounts,
			Table:         TypeHostingAccounts,
			Fields:        []string{"provider", "account_name", "url", "username", "description", "short_description", entityFK},
			DisplayFields: []string{"provider", "account_name"},
			SearchFields:  []string{"provider", "account_name", "url", "description"},
			Required:      []string{"provider"},
			Parent:        toEntity,
		},
	}

	return NewRegistry(types)
}
