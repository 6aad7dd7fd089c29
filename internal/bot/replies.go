package bot

// Fixed user-facing reply strings, one per outcome. Internal error
// detail never reaches the channel; it goes to the logs instead.
const (
	replyGreeting = "👋 How are you? Type `!ebooks` to see available eBooks!"

	replyNoEbooks      = "📚 No ebooks available right now. Check back soon!"
	replyBuyUsage      = "❌ Please provide an ebook title. Example: `!buy mybook`"
	replyInvalidOption = "Invalid ebook option."
	replyInProgress    = "⌛ A checkout for this ebook is already in progress. Finish it or wait a minute before trying again."
	replyPaymentError  = "❌ Could not reach the payment service. Please try again later."
	replyUnavailable   = "⚠️ Service temporarily unavailable. Please try again shortly."

	replyPaidUsage      = "❌ Please provide a session ID. Example: `!paid cs_test_12345`"
	replyInvalidSession = "❌ Invalid session ID."
	replyNoOrder        = "❌ No order found for this session ID."
	replyNotCompleted   = "❌ Payment not completed yet. Please check your payment."

	replyNoPurchases = "📦 You have not purchased any ebooks yet."
)

// Greeting is the public greeting line, reused for member-join welcomes.
func Greeting() string { return replyGreeting }
