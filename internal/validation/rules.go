package validation

// Column limits enforced on input, matching the schema.
const (
	maxScore = "100"
	maxPrice = "99999999.99"

	// bcrypt refuses to hash longer passwords.
	maxPasswordBytes = 72
)

// Rule sets for each endpoint that accepts a body.
var (
	LoginRules = []Rule{
		Required("username", String),
		Required("password", String),
	}

	UserCreateRules = []Rule{
		Required("username", String).Chars(50),
		Required("name", String).Chars(50),
		Required("surname", String).Chars(50),
		Required("birth_date", Integer),
		Required("email", Email).Chars(100),
		Required("password", String).Bytes(maxPasswordBytes),
		Required("role", String).Chars(20),
		Optional("photo", String).Chars(200),
	}

	UserUpdateRules = append([]Rule{
		Required("id", UUID),
		Optional("is_active", Bool),
		Optional("recovery_code", Integer),
	}, UserCreateRules...)

	PasswordUpdateRules = []Rule{
		Required("id", UUID),
		Required("password", String).Bytes(maxPasswordBytes),
	}

	EstablishmentCreateRules = []Rule{
		Required("name", String).Chars(100),
		Required("location", String).Chars(200),
		Optional("is_open", Bool),
		Optional("is_computer_allowed", Bool),
		Optional("maps_id", Text).Chars(200),
	}

	EstablishmentUpdateRules = append([]Rule{Required("id", UUID)}, EstablishmentCreateRules...)

	MenuCreateRules = []Rule{
		Required("price", Numeric).Between("0", maxPrice),
		Required("score", Numeric).Between("0", maxScore),
	}

	MenuUpdateRules = append([]Rule{Required("id", UUID)}, MenuCreateRules...)

	ProductCreateRules = []Rule{
		Required("name", String).Chars(100),
		Optional("in_menu", Bool),
		Optional("price", Numeric).Between("0", maxPrice),
		Optional("score", Numeric).Between("0", maxScore),
		Optional("menu_id", UUID),
		Optional("publication_id", UUID),
	}

	ProductUpdateRules = append([]Rule{Required("id", UUID)}, ProductCreateRules...)

	PublicationCreateRules = []Rule{
		Required("total_price", Numeric).Between("0", maxPrice),
		Required("total_score", Numeric).Between("0", maxScore),
		Required("photo", String).Chars(200),
		Required("establishment_id", UUID),
		Required("user_id", UUID),
		Optional("comment", Text),
	}

	PublicationUpdateRules = append([]Rule{Required("id", UUID)}, PublicationCreateRules...)
)
