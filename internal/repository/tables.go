package repository

// Users is the users table.  userPass holds the bcrypt hash and is never
// projected.
var Users = Table{
	Name: "users",
	Key:  Column{Field: "userID", Name: "userID", Kind: KindInt},
	Columns: []Column{
		{Field: "userName", Name: "userName", Kind: KindString},
		{Field: "lastName", Name: "lastName", Kind: KindString},
		{Field: "gender", Name: "gender", Kind: KindString},
		{Field: "age", Name: "age", Kind: KindInt, Unsigned: true},
		{Field: "emailAdd", Name: "emailAdd", Kind: KindString},
		{Field: "userPass", Name: "userPass", Kind: KindString, Hidden: true},
	},
	Required: []string{"userName", "lastName", "gender", "age", "emailAdd", "userPass"},
}

// Movies is the movies table.  The description column keeps its legacy
// spelling in the schema.
var Movies = Table{
	Name: "movies",
	Key:  Column{Field: "movieID", Name: "movieID", Kind: KindInt},
	Columns: []Column{
		{Field: "movie_poster", Name: "movie_poster", Kind: KindString, Nullable: true},
		{Field: "movie_title", Name: "movie_title", Kind: KindString},
		{Field: "release_year", Name: "release_year", Kind: KindInt, Nullable: true},
		{Field: "rating", Name: "rating", Kind: KindFloat, Nullable: true},
		{Field: "duration", Name: "duration", Kind: KindString, Nullable: true},
		{Field: "description", Name: "discription", Kind: KindString, Nullable: true},
		{Field: "star", Name: "star", Kind: KindString, Nullable: true},
	},
	Required: []string{"movie_title"},
}

// Orders is the orders table.  userID and movieID are plain references;
// nothing here checks that they exist.
var Orders = Table{
	Name: "orders",
	Key:  Column{Field: "orderID", Name: "orderID", Kind: KindInt},
	Columns: []Column{
		{Field: "price", Name: "price", Kind: KindFloat},
		{Field: "userID", Name: "userID", Kind: KindInt},
		{Field: "movieID", Name: "movieID", Kind: KindInt},
	},
	Required: []string{"price", "userID", "movieID"},
}
