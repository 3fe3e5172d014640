package scanning

// shiftScanPrompt is shared by all providers
const shiftScanPrompt = `You are reading a photo of a taxi driver's end-of-shift summary report. Carefully read all printed text and extract the following values:

- totalAmount: the total fare amount for the shift
- paidInCareem: the amount paid through Careem
- totalHiredKm: kilometres driven with a passenger (hired km)
- vacantKm: kilometres driven without a passenger (vacant km)
- totalTrip: the total number of trips
- bookingTrip: the number of booked trips
- tollwayAmount: Salik / tollway charges
- halaPackAmount: Hala pack amount
- otherExpenses: any other expenses
- date: the shift date in ISO 8601 format (YYYY-MM-DD)

Return ONLY valid JSON in this exact format:
{
  "totalAmount": 0,
  "paidInCareem": 0,
  "totalHiredKm": 0,
  "vacantKm": 0,
  "totalTrip": 0,
  "bookingTrip": 0,
  "tollwayAmount": 0,
  "halaPackAmount": 0,
  "otherExpenses": 0,
  "date": "YYYY-MM-DD"
}

Important:
- All amounts and counts must be numbers (not strings), without currency symbols
- Use 0 for any numeric value that is not on the report
- Use null for the date if it is not on the report
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

const shiftScanSystemPrompt = "You are an expert at reading taxi meter shift summaries and extracting accurate figures from photos of printed reports."
