package validation

// DateTimeLayout is the minute-precision local time format of Poll.ExpireAt and Vote.CreatedAt.
const DateTimeLayout = "2006-01-02 15:04"

// PollCreate checks only the title. expireAt is taken as given and read by voting.Expired.
var PollCreate = Shape{
	{Name: "title", Required: true, Type: String},
}

var ChoiceCreate = Shape{
	{Name: "title", Required: true, Type: String},
	{Name: "pollId", Required: true, Type: String},
}
